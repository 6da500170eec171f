package validation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-validation-infra/internal/chain"
	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/metrics"
)

var engineTestTime = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

// stubVerifier 固定返回预设判定
type stubVerifier struct {
	verdict Verdict
}

func (v *stubVerifier) Verify(proof Proof, evidence *chain.Evidence) Verdict {
	return v.verdict
}

// stubResolver 解析到固定校验器或固定错误
type stubResolver struct {
	verifier Verifier
	err      error
}

func (r *stubResolver) Resolve(chainID uint64, kind string) (Verifier, error) {
	if r.err != nil {
		return nil, r.err
	}

	return r.verifier, nil
}

// stubSource 记录调用次数并返回预设证据
type stubSource struct {
	evidence *chain.Evidence
	err      error
	calls    int
}

func (s *stubSource) FetchEvidence(ctx context.Context, chainID uint64, kind string, nonce string) (*chain.Evidence, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}

	return s.evidence, nil
}

// stubLedger 可编程台账，记录每一次提交与释放
type stubLedger struct {
	record       *Record
	reserveErr   error
	commitErr    error
	commitStored *Record
	reserves     int
	committed    []Record
	released     int
}

func (l *stubLedger) TryReserve(ctx context.Context, chainID uint64, nonce string) (*Record, *Reservation, error) {
	l.reserves++
	if l.reserveErr != nil {
		return nil, nil, l.reserveErr
	}
	if l.record != nil {
		return l.record, nil, nil
	}

	return nil, &Reservation{ChainID: chainID, Nonce: nonce, Token: "lease-token"}, nil
}

func (l *stubLedger) Commit(ctx context.Context, reservation *Reservation, record Record) (*Record, error) {
	if l.commitErr != nil {
		return l.commitStored, l.commitErr
	}

	l.committed = append(l.committed, record)

	return &record, nil
}

func (l *stubLedger) Release(ctx context.Context, reservation *Reservation) error {
	l.released++
	return nil
}

// stubIssuer 记录铸造次数并返回固定凭证
type stubIssuer struct {
	err    error
	issued int
}

func (i *stubIssuer) Issue(request SigningRequest, fingerprint string) (*Token, error) {
	i.issued++
	if i.err != nil {
		return nil, i.err
	}

	return &Token{ID: "token-id", Signed: "signed-token", ExpiresAt: engineTestTime.Add(2 * time.Minute)}, nil
}

func newTestEngine(resolver VerifierResolver, source EvidenceSource, ledger NonceLedger, issuer TokenIssuer) *Engine {
	cfg := config.Server{}
	cfg.Validation.RetryAfterHint = 5 * time.Second
	cfg.Validation.ContentionRetryAfterHint = time.Second

	return NewEngine(cfg, resolver, source, ledger, issuer, metrics.New(), time2.NewMockClock(engineTestTime))
}

func depositEvidence(confirmations uint64) *chain.Evidence {
	return &chain.Evidence{
		ChainID:       1,
		Nonce:         validRequest().Proof.Nonce,
		Confirmations: confirmations,
		Raw:           json.RawMessage(`{"tx_status":1}`),
	}
}

func TestEngineAuthorizesAndMintsAfterCommit(t *testing.T) {
	ledger := &stubLedger{}
	issuer := &stubIssuer{}
	source := &stubSource{evidence: depositEvidence(12)}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, source, ledger, issuer)

	request := validRequest()
	decision := engine.Authorize(context.Background(), request)

	require.True(t, decision.Verdict.IsAuthorized())
	require.NotNil(t, decision.Token)
	assert.Equal(t, "token-id", decision.Token.ID)
	assert.False(t, decision.Replayed)
	assert.Equal(t, request.Fingerprint(), decision.Fingerprint)
	assert.Zero(t, decision.RetryAfter)

	require.Len(t, ledger.committed, 1)
	record := ledger.committed[0]
	assert.Equal(t, OutcomeAuthorized, record.Outcome)
	assert.Equal(t, ReasonNone, record.Reason)
	assert.Equal(t, request.Proof.ChainID, record.ChainID)
	assert.Equal(t, request.Proof.Nonce, record.Nonce)
	assert.Equal(t, request.Fingerprint(), record.Fingerprint)
	assert.Equal(t, engineTestTime, record.ConsumedAt)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 1, issuer.issued)
	assert.Zero(t, ledger.released)
}

func TestEngineRejectsMalformedRequestWithoutLedgerTouch(t *testing.T) {
	ledger := &stubLedger{}
	source := &stubSource{}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, source, ledger, &stubIssuer{})

	request := validRequest()
	request.Message = nil
	decision := engine.Authorize(context.Background(), request)

	require.True(t, decision.Verdict.IsRejected())
	assert.Equal(t, ReasonMalformedRequest, decision.Verdict.Reason)
	assert.Zero(t, ledger.reserves, "malformed requests must not touch the ledger")
	assert.Zero(t, source.calls)
}

func TestEngineRejectsUnsupportedChain(t *testing.T) {
	ledger := &stubLedger{}
	engine := newTestEngine(&stubResolver{err: ErrUnsupportedChain}, &stubSource{}, ledger, &stubIssuer{})

	decision := engine.Authorize(context.Background(), validRequest())

	require.True(t, decision.Verdict.IsRejected())
	assert.Equal(t, ReasonUnsupportedChain, decision.Verdict.Reason)
	assert.Zero(t, ledger.reserves)
}

func TestEngineReplaysMatchingFingerprint(t *testing.T) {
	request := validRequest()
	ledger := &stubLedger{record: &Record{
		ChainID:     request.Proof.ChainID,
		Nonce:       request.Proof.Nonce,
		Outcome:     OutcomeAuthorized,
		Fingerprint: request.Fingerprint(),
		ConsumedAt:  engineTestTime.Add(-time.Minute),
	}}
	issuer := &stubIssuer{}
	source := &stubSource{}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Rejected(ReasonAmountMismatch)}}, source, ledger, issuer)

	decision := engine.Authorize(context.Background(), request)

	require.True(t, decision.Verdict.IsAuthorized(), "replay must follow the stored verdict, not the verifier")
	assert.True(t, decision.Replayed)
	require.NotNil(t, decision.Token, "authorized replays mint a fresh token")
	assert.Zero(t, source.calls, "replays must not query the chain")
	assert.Equal(t, 1, issuer.issued)
}

func TestEngineReplaysRejectedRecordWithoutToken(t *testing.T) {
	request := validRequest()
	ledger := &stubLedger{record: &Record{
		ChainID:     request.Proof.ChainID,
		Nonce:       request.Proof.Nonce,
		Outcome:     OutcomeRejected,
		Reason:      ReasonReceiverMismatch,
		Fingerprint: request.Fingerprint(),
		ConsumedAt:  engineTestTime.Add(-time.Minute),
	}}
	issuer := &stubIssuer{}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, &stubSource{}, ledger, issuer)

	decision := engine.Authorize(context.Background(), request)

	require.True(t, decision.Verdict.IsRejected())
	assert.Equal(t, ReasonReceiverMismatch, decision.Verdict.Reason)
	assert.True(t, decision.Replayed)
	assert.Nil(t, decision.Token)
	assert.Zero(t, issuer.issued)
}

// 同一个 nonce 换了请求内容：键已烧掉，对其他请求永久关闭
func TestEngineRejectsConsumedNonceOnFingerprintMismatch(t *testing.T) {
	request := validRequest()
	ledger := &stubLedger{record: &Record{
		ChainID:     request.Proof.ChainID,
		Nonce:       request.Proof.Nonce,
		Outcome:     OutcomeAuthorized,
		Fingerprint: "another-fingerprint",
		ConsumedAt:  engineTestTime.Add(-time.Minute),
	}}
	issuer := &stubIssuer{}
	source := &stubSource{}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, source, ledger, issuer)

	decision := engine.Authorize(context.Background(), request)

	require.True(t, decision.Verdict.IsRejected())
	assert.Equal(t, ReasonNonceConsumed, decision.Verdict.Reason)
	assert.True(t, decision.Replayed)
	assert.Nil(t, decision.Token)
	assert.Zero(t, issuer.issued, "a mismatched replay must never mint a token")
	assert.Zero(t, source.calls)
}

func TestEngineReportsReservationContention(t *testing.T) {
	ledger := &stubLedger{reserveErr: ErrReservationHeld}
	source := &stubSource{}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, source, ledger, &stubIssuer{})

	decision := engine.Authorize(context.Background(), validRequest())

	require.True(t, decision.Verdict.IsIndeterminate())
	assert.Equal(t, ReasonReservationHeld, decision.Verdict.Reason)
	assert.Equal(t, time.Second, decision.RetryAfter, "contention carries the short retry hint")
	assert.Zero(t, source.calls)
}

func TestEngineFoldsLedgerFailureIntoIndeterminate(t *testing.T) {
	ledger := &stubLedger{reserveErr: errors.New("connection refused")}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, &stubSource{}, ledger, &stubIssuer{})

	decision := engine.Authorize(context.Background(), validRequest())

	require.True(t, decision.Verdict.IsIndeterminate())
	assert.Equal(t, ReasonLedgerUnavailable, decision.Verdict.Reason)
	assert.Equal(t, 5*time.Second, decision.RetryAfter)
}

// 链明确否认交易存在是终局答案，要消耗 nonce 落账
func TestEngineCommitsNotFoundAsRejection(t *testing.T) {
	ledger := &stubLedger{}
	source := &stubSource{err: chain.ErrNotFound}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, source, ledger, &stubIssuer{})

	decision := engine.Authorize(context.Background(), validRequest())

	require.True(t, decision.Verdict.IsRejected())
	assert.Equal(t, ReasonNoSuchTransaction, decision.Verdict.Reason)
	assert.False(t, decision.Replayed)

	require.Len(t, ledger.committed, 1)
	assert.Equal(t, OutcomeRejected, ledger.committed[0].Outcome)
	assert.Equal(t, ReasonNoSuchTransaction, ledger.committed[0].Reason)
	assert.Zero(t, ledger.released)
}

func TestEngineReleasesOnChainUnavailable(t *testing.T) {
	ledger := &stubLedger{}
	source := &stubSource{err: chain.Transient("https://rpc.example.com", errors.New("i/o timeout"))}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, source, ledger, &stubIssuer{})

	decision := engine.Authorize(context.Background(), validRequest())

	require.True(t, decision.Verdict.IsIndeterminate())
	assert.Equal(t, ReasonChainUnavailable, decision.Verdict.Reason)
	assert.Equal(t, 5*time.Second, decision.RetryAfter)
	assert.Equal(t, 1, ledger.released, "the reservation must be released so the request can retry")
	assert.Empty(t, ledger.committed)
}

// 未决判定不消耗 nonce：释放预留，同一请求稍后重试
func TestEngineReleasesOnIndeterminateVerdict(t *testing.T) {
	ledger := &stubLedger{}
	issuer := &stubIssuer{}
	source := &stubSource{evidence: depositEvidence(2)}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Indeterminate(ReasonBelowConfirmationDepth)}}, source, ledger, issuer)

	decision := engine.Authorize(context.Background(), validRequest())

	require.True(t, decision.Verdict.IsIndeterminate())
	assert.Equal(t, ReasonBelowConfirmationDepth, decision.Verdict.Reason)
	assert.Equal(t, 5*time.Second, decision.RetryAfter)
	assert.Equal(t, 1, ledger.released)
	assert.Empty(t, ledger.committed)
	assert.Zero(t, issuer.issued)
}

// 租约过期后被并发写入者抢先落账时，跟随赢家的记录
func TestEngineFollowsCommitConflictWinner(t *testing.T) {
	request := validRequest()
	winner := &Record{
		ChainID:     request.Proof.ChainID,
		Nonce:       request.Proof.Nonce,
		Outcome:     OutcomeRejected,
		Reason:      ReasonNoSuchTransaction,
		Fingerprint: request.Fingerprint(),
		ConsumedAt:  engineTestTime.Add(-time.Second),
	}
	ledger := &stubLedger{commitErr: ErrRecordConflict, commitStored: winner}
	issuer := &stubIssuer{}
	source := &stubSource{evidence: depositEvidence(12)}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, source, ledger, issuer)

	decision := engine.Authorize(context.Background(), request)

	require.True(t, decision.Verdict.IsRejected(), "the stored record wins over the local verdict")
	assert.Equal(t, ReasonNoSuchTransaction, decision.Verdict.Reason)
	assert.True(t, decision.Replayed)
	assert.Zero(t, issuer.issued)
}

func TestEngineCommitConflictWithForeignFingerprint(t *testing.T) {
	request := validRequest()
	winner := &Record{
		ChainID:     request.Proof.ChainID,
		Nonce:       request.Proof.Nonce,
		Outcome:     OutcomeAuthorized,
		Fingerprint: "someone-else",
		ConsumedAt:  engineTestTime.Add(-time.Second),
	}
	ledger := &stubLedger{commitErr: ErrRecordConflict, commitStored: winner}
	issuer := &stubIssuer{}
	source := &stubSource{evidence: depositEvidence(12)}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, source, ledger, issuer)

	decision := engine.Authorize(context.Background(), request)

	require.True(t, decision.Verdict.IsRejected())
	assert.Equal(t, ReasonNonceConsumed, decision.Verdict.Reason)
	assert.True(t, decision.Replayed)
	assert.Zero(t, issuer.issued)
}

func TestEngineWithholdsVerdictOnCommitFailure(t *testing.T) {
	ledger := &stubLedger{commitErr: errors.New("connection reset")}
	issuer := &stubIssuer{}
	source := &stubSource{evidence: depositEvidence(12)}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, source, ledger, issuer)

	decision := engine.Authorize(context.Background(), validRequest())

	require.True(t, decision.Verdict.IsIndeterminate())
	assert.Equal(t, ReasonLedgerUnavailable, decision.Verdict.Reason)
	assert.Nil(t, decision.Token)
	assert.Equal(t, 1, ledger.released)
	assert.Zero(t, issuer.issued)
}

// 凭证铸造失败时记录已经落账：扣下判定返回未决，重试走重放拿新凭证
func TestEngineWithholdsTokenOnIssueFailure(t *testing.T) {
	ledger := &stubLedger{}
	issuer := &stubIssuer{err: errors.New("signing failed")}
	source := &stubSource{evidence: depositEvidence(12)}
	engine := newTestEngine(&stubResolver{verifier: &stubVerifier{verdict: Authorized()}}, source, ledger, issuer)

	decision := engine.Authorize(context.Background(), validRequest())

	require.True(t, decision.Verdict.IsIndeterminate())
	assert.Equal(t, ReasonLedgerUnavailable, decision.Verdict.Reason)
	assert.Nil(t, decision.Token)
	require.Len(t, ledger.committed, 1, "the record must stay committed despite the failed mint")
	assert.Equal(t, OutcomeAuthorized, ledger.committed[0].Outcome)
	assert.Zero(t, ledger.released)
}

func TestEngineIssuePanicsOnNonAuthorizedVerdict(t *testing.T) {
	engine := newTestEngine(&stubResolver{}, &stubSource{}, &stubLedger{}, &stubIssuer{})

	assert.Panics(t, func() {
		_, _ = engine.issue(context.Background(), validRequest(), Rejected(ReasonNonceConsumed), "fingerprint")
	})
}
