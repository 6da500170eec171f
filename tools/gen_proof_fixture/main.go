package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
)

func main() {
	action := flag.String("action", "", "Action: 'request' or 'evidence'")

	chainID := flag.Uint64("chain-id", 1, "Chain id for the proof")
	kind := flag.String("kind", "deposit", "Proof kind: deposit or withdrawal_clear")
	nonce := flag.String("nonce", "", "Proof nonce, random tx hash when empty")
	sender := flag.String("sender", "0x9965507d1a55bcc2695c58ba16fb37d819b0a4dc", "Sender address")
	receiver := flag.String("receiver", "0x70997970c51812dc3a010c7d01b50e0d17dc79c8", "Receiver address")
	token := flag.String("token", "0x5fbdb2315678afecb367f032d93f642f64180aa3", "Token contract address")
	amount := flag.String("amount", "1000000000000000000", "Amount in base units")

	flag.Parse()

	if *nonce == "" {
		*nonce = randomHex(32)
	}

	switch *action {
	case "request":
		generateRequest(*chainID, *kind, *nonce, *sender, *receiver, *token, *amount)
	case "evidence":
		generateEvidence(*sender, *receiver, *token, *amount)
	default:
		log.Fatal("Invalid action. Use 'request' or 'evidence'")
	}
}

// generateRequest prints an authorize request body ready for curl.
func generateRequest(chainID uint64, kind, nonce, sender, receiver, token, amount string) {
	result := map[string]interface{}{
		"message_hex": randomHex(32),
		"proof": map[string]interface{}{
			"chain_id": chainID,
			"kind":     kind,
			"nonce":    nonce,
			"params": map[string]string{
				"sender":   sender,
				"receiver": receiver,
				"token_id": token,
				"amount":   amount,
			},
		},
	}

	printJSON(result)
}

// generateEvidence prints a deposit evidence payload in the shape the EVM
// adapter produces, usable to script RPC fixtures in tests.
func generateEvidence(sender, receiver, token, amount string) {
	result := map[string]interface{}{
		"tx_status": 1,
		"deposit": map[string]string{
			"sender":   sender,
			"receiver": receiver,
			"token":    token,
			"amount":   amount,
		},
	}

	printJSON(result)
}

func printJSON(v interface{}) {
	jsonOutput, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal output: %v", err)
	}

	fmt.Println(string(jsonOutput))
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to read random bytes: %v", err)
	}

	return "0x" + hex.EncodeToString(b)
}
