// Command paycore-demo wires the core components into a bare net/http
// resource server: it issues a 402 challenge, accepts a paid retry, and
// releases the resource only after the Verifier confirms the receipt on
// chain. This is ambient wiring for the core, not a general-purpose
// paywall middleware — no HTTP framework is pulled in for one handler.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/x402core/paycore/chainadapter/account"
	"github.com/x402core/paycore/types"
	"github.com/x402core/paycore/verifier"
)

func main() {
	rpcURL := os.Getenv("PAYCORE_RPC_URL")
	if rpcURL == "" {
		rpcURL = types.AccountDev.DefaultRPC()
	}
	payTo := os.Getenv("PAYCORE_PAY_TO")
	if payTo == "" {
		log.Fatal("paycore-demo: PAYCORE_PAY_TO is required")
	}
	mint := os.Getenv("PAYCORE_MINT")
	if mint == "" {
		log.Fatal("paycore-demo: PAYCORE_MINT is required")
	}

	adapter := account.NewWithDefaultFeeTolerance(types.AccountDev, rpcURL)
	v := verifier.New(adapter, types.FamilyAccount)

	requirement := types.PaymentRequirement{
		Network:           types.AccountDev,
		PayTo:             types.NewAddress(payTo, types.FamilyAccount),
		MaxAmountRequired: types.AmountFromUint64(20_000),
		Asset:             types.Asset{Kind: types.Token, MintOrContract: types.NewAddress(mint, types.FamilyAccount)},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/resource", resourceHandler(v, requirement))

	addr := os.Getenv("PAYCORE_LISTEN_ADDR")
	if addr == "" {
		addr = ":8402"
	}
	log.Printf("paycore-demo: listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func resourceHandler(v *verifier.Verifier, requirement types.PaymentRequirement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receiptJSON := r.Header.Get("X-Payment")
		if receiptJSON == "" {
			writePaymentRequired(w, requirement)
			return
		}

		receipt, err := types.DecodeReceipt([]byte(receiptJSON))
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed X-Payment header: "+err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		verdict, err := v.Verify(ctx, receipt)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "verification failed: "+err.Error())
			return
		}
		if !verdict.OK {
			writePaymentRequired(w, requirement)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writePaymentRequired(w http.ResponseWriter, requirement types.PaymentRequirement) {
	accepts, err := types.EncodeAccepts([]types.PaymentRequirement{requirement})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode payment requirements")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	w.Write(accepts)
}
