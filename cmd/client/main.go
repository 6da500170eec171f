package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	baseURL    = flag.String("url", "http://localhost:8080", "Base URL of the verification service")
	chainID    = flag.Uint64("chain-id", 1, "Chain id of the proof")
	kind       = flag.String("kind", "deposit", "Proof kind: deposit or withdrawal_clear")
	nonce      = flag.String("nonce", "", "Proof nonce (tx hash or withdrawal nonce)")
	messageHex = flag.String("message-hex", "", "Message to be signed, hex encoded")
	sender     = flag.String("sender", "", "Claimed sender address")
	receiver   = flag.String("receiver", "", "Claimed receiver address")
	tokenID    = flag.String("token-id", "", "Claimed token contract")
	amount     = flag.String("amount", "", "Claimed amount in base units")
	replay     = flag.Bool("replay", false, "Send the same request twice to exercise nonce replay")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// 设置日志级别
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *nonce == "" {
		log.Fatal().Msg("nonce is required")
	}
	if *messageHex == "" {
		log.Fatal().Msg("message-hex is required")
	}

	// 处理中断信号
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Received interrupt signal, shutting down...")
		cancel()
	}()

	client := NewAuthzClient(*baseURL)

	request := AuthorizeRequest{
		MessageHex: *messageHex,
		Proof: ProofClaim{
			ChainID: *chainID,
			Kind:    *kind,
			Nonce:   *nonce,
			Params: ProofClaimParams{
				Sender:   *sender,
				Receiver: *receiver,
				TokenID:  *tokenID,
				Amount:   *amount,
			},
		},
	}

	// 首次授权请求
	log.Info().Uint64("chain_id", *chainID).Str("nonce", *nonce).Msg("Requesting signing authorization...")
	decision, err := client.Authorize(ctx, request)
	if err != nil {
		log.Fatal().Err(err).Msg("Authorize request failed")
	}
	logDecision("first request", decision)

	// 重放同一请求，验证 nonce 只被消耗一次
	if *replay {
		log.Info().Msg("Replaying the same request...")
		replayed, err := client.Authorize(ctx, request)
		if err != nil {
			log.Fatal().Err(err).Msg("Replay request failed")
		}
		logDecision("replayed request", replayed)
	}

	// 查询该键的消耗记录
	record, err := client.GetRecord(ctx, *chainID, *nonce)
	if err != nil {
		log.Warn().Err(err).Msg("No consumption record yet")
		return
	}

	log.Info().
		Str("outcome", record.Outcome).
		Str("reason", record.Reason).
		Str("fingerprint", record.Fingerprint).
		Str("consumed_at", record.ConsumedAt).
		Msg("Nonce consumption record")
}

func logDecision(stage string, decision *AuthorizeDecision) {
	event := log.Info().
		Str("stage", stage).
		Str("verdict", decision.Verdict).
		Bool("replayed", decision.Replayed)

	if decision.Reason != "" {
		event = event.Str("reason", decision.Reason)
	}
	if decision.RetryAfterSeconds > 0 {
		event = event.Int64("retry_after_seconds", decision.RetryAfterSeconds)
	}
	if decision.Token != "" {
		event = event.Str("token_id", decision.TokenID).Str("expires_at", decision.ExpiresAt)
	}

	event.Msg("Received verdict")
}
