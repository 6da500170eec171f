package validation

import (
	"context"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/chain"
	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/metrics"
	"github.com/kashguard/go-validation-infra/internal/util"
)

// EvidenceSource 为证明抓取新鲜链上证据。证据绝不缓存。
type EvidenceSource interface {
	FetchEvidence(ctx context.Context, chainID uint64, kind string, nonce string) (*chain.Evidence, error)
}

// Verifier 用新鲜证据判定证明。实现必须是纯函数：同样的证明与证据
// 永远得到同样的判定。
type Verifier interface {
	Verify(proof Proof, evidence *chain.Evidence) Verdict
}

// VerifierResolver 按链与证明种类解析校验器。没有注册时返回
// ErrUnsupportedChain。
type VerifierResolver interface {
	Resolve(chainID uint64, kind string) (Verifier, error)
}

// NonceLedger nonce 键的一次性消耗台账。
type NonceLedger interface {
	// TryReserve 原子地认领键。返回值三选一：已存在的记录（键已消耗）、
	// 新预留、或错误。并发持有者用 ErrReservationHeld 表示。
	TryReserve(ctx context.Context, chainID uint64, nonce string) (*Record, *Reservation, error)
	// Commit 写入不可变记录并撤销预留，返回最终落账的记录。预留过期后
	// 被并发写入者抢先时返回对方的记录与 ErrRecordConflict。
	Commit(ctx context.Context, reservation *Reservation, record Record) (*Record, error)
	// Release 撤销预留且不写任何记录，键重新变为可预留。
	Release(ctx context.Context, reservation *Reservation) error
}

// TokenIssuer 为授权请求铸造授权凭证。
type TokenIssuer interface {
	Issue(request SigningRequest, fingerprint string) (*Token, error)
}

// Decision 对一次授权调用的完整应答。
type Decision struct {
	Verdict     Verdict
	Fingerprint string
	// Replayed 表示应答完全来自台账记录，没有产生任何链查询。
	Replayed bool
	// RetryAfter 客户端重试提示，只在未决判定上设置。
	RetryAfter time.Duration
	// Token 只在授权判定上设置。
	Token *Token
}

// Engine 把一次签名请求推过 预留 → 取证 → 判定 → 落账 的完整流程。
type Engine struct {
	registry VerifierResolver
	source   EvidenceSource
	ledger   NonceLedger
	issuer   TokenIssuer
	metrics  *metrics.Service
	clock    time2.Clock

	retryAfter           time.Duration
	contentionRetryAfter time.Duration
}

// NewEngine 创建请求编排引擎。
func NewEngine(cfg config.Server, registry VerifierResolver, source EvidenceSource, ledger NonceLedger, issuer TokenIssuer, m *metrics.Service, clock time2.Clock) *Engine {
	return &Engine{
		registry:             registry,
		source:               source,
		ledger:               ledger,
		issuer:               issuer,
		metrics:              m,
		clock:                clock,
		retryAfter:           cfg.Validation.RetryAfterHint,
		contentionRetryAfter: cfg.Validation.ContentionRetryAfterHint,
	}
}

// Authorize 判定一次签名请求。基础设施故障折叠进未决判定，调用方
// 永远拿到一个三态结果而不是错误。
func (e *Engine) Authorize(ctx context.Context, request SigningRequest) *Decision {
	log := util.LogFromContext(ctx)
	start := time.Now()

	decision := e.authorize(ctx, request)

	chainID := request.Proof.ChainID
	if decision.Verdict.Reason == ReasonMalformedRequest || decision.Verdict.Reason == ReasonUnsupportedChain {
		// 未知链折叠到单一标签值，防止指标基数被请求方撑爆
		chainID = 0
	}

	e.metrics.ObserveVerify(chainID, string(decision.Verdict.Outcome), time.Since(start))
	e.metrics.IncVerdict(chainID, string(decision.Verdict.Outcome), string(decision.Verdict.Reason))

	log.Info().
		Uint64("chainID", request.Proof.ChainID).
		Str("kind", request.Proof.Kind).
		Str("outcome", string(decision.Verdict.Outcome)).
		Str("reason", string(decision.Verdict.Reason)).
		Bool("replayed", decision.Replayed).
		Str("fingerprint", decision.Fingerprint).
		Msg("Signing request decided")

	return decision
}

func (e *Engine) authorize(ctx context.Context, request SigningRequest) *Decision {
	log := util.LogFromContext(ctx)
	fingerprint := request.Fingerprint()

	// 形状检查先于一切：畸形请求不允许触碰台账
	if err := request.Validate(); err != nil {
		log.Debug().Err(err).Msg("Signing request failed shape check")
		return &Decision{Verdict: Rejected(ReasonMalformedRequest), Fingerprint: fingerprint}
	}

	verifier, err := e.registry.Resolve(request.Proof.ChainID, request.Proof.Kind)
	if err != nil {
		return &Decision{Verdict: Rejected(ReasonUnsupportedChain), Fingerprint: fingerprint}
	}

	record, reservation, err := e.ledger.TryReserve(ctx, request.Proof.ChainID, request.Proof.Nonce)
	switch {
	case errors.Is(err, ErrReservationHeld):
		e.metrics.IncLeaseContention()
		return &Decision{Verdict: Indeterminate(ReasonReservationHeld), Fingerprint: fingerprint, RetryAfter: e.contentionRetryAfter}
	case err != nil:
		log.Error().Err(err).Msg("Nonce ledger reservation failed")
		return &Decision{Verdict: Indeterminate(ReasonLedgerUnavailable), Fingerprint: fingerprint, RetryAfter: e.retryAfter}
	case record != nil:
		return e.replay(ctx, *record, request, fingerprint)
	}

	// 从这里起持有预留，每条路径都必须提交或释放
	evidence, err := e.source.FetchEvidence(ctx, request.Proof.ChainID, request.Proof.Kind, request.Proof.Nonce)
	if err != nil {
		if errors.Is(err, chain.ErrNotFound) {
			// 链明确否认该交易存在，这是终局答案
			return e.commit(ctx, reservation, request, fingerprint, Rejected(ReasonNoSuchTransaction))
		}

		e.release(ctx, reservation)
		return &Decision{Verdict: Indeterminate(ReasonChainUnavailable), Fingerprint: fingerprint, RetryAfter: e.retryAfter}
	}

	verdict := verifier.Verify(request.Proof, evidence)
	if verdict.IsIndeterminate() {
		// 未决不消耗 nonce：释放预留，同一请求稍后可以重试
		e.release(ctx, reservation)
		return &Decision{Verdict: verdict, Fingerprint: fingerprint, RetryAfter: e.retryAfter}
	}

	return e.commit(ctx, reservation, request, fingerprint, verdict)
}

// commit 落账终局判定。授权凭证只在记录持久化之后铸造：没有落账的
// 授权会让 nonce 保持可花费，宁可扣下凭证返回未决。
func (e *Engine) commit(ctx context.Context, reservation *Reservation, request SigningRequest, fingerprint string, verdict Verdict) *Decision {
	log := util.LogFromContext(ctx)

	record := Record{
		ChainID:     request.Proof.ChainID,
		Nonce:       request.Proof.Nonce,
		Outcome:     verdict.Outcome,
		Reason:      verdict.Reason,
		Fingerprint: fingerprint,
		ConsumedAt:  e.clock.Now(),
	}

	stored, err := e.ledger.Commit(ctx, reservation, record)
	switch {
	case errors.Is(err, ErrRecordConflict) && stored != nil:
		// 租约过期后被并发请求抢先落账，跟随赢家的记录
		e.metrics.IncRecordConflict()
		log.Warn().
			Uint64("chainID", record.ChainID).
			Str("fingerprint", fingerprint).
			Msg("Nonce record commit lost the race, following stored record")
		return e.replay(ctx, *stored, request, fingerprint)
	case err != nil:
		e.release(ctx, reservation)
		log.Error().Err(err).Msg("Nonce record commit failed, withholding verdict")
		return &Decision{Verdict: Indeterminate(ReasonLedgerUnavailable), Fingerprint: fingerprint, RetryAfter: e.retryAfter}
	}

	decision := &Decision{Verdict: verdict, Fingerprint: fingerprint}
	if verdict.IsAuthorized() {
		token, err := e.issue(ctx, request, verdict, fingerprint)
		if err != nil {
			// 记录已落账，重试会走重放路径拿到新凭证
			log.Error().Err(err).Msg("Token issuance failed after commit")
			return &Decision{Verdict: Indeterminate(ReasonLedgerUnavailable), Fingerprint: fingerprint, RetryAfter: e.retryAfter}
		}

		decision.Token = token
	}

	return decision
}

// replay 用已存在的记录应答。这条路径不产生任何链查询；指纹相同的
// 请求重放原判定，不同的请求以 nonce_consumed 拒绝。
func (e *Engine) replay(ctx context.Context, record Record, request SigningRequest, fingerprint string) *Decision {
	log := util.LogFromContext(ctx)
	e.metrics.IncReplay(record.ChainID)

	if record.Fingerprint != fingerprint {
		// 同一个 nonce 换了请求内容：键已被烧掉，对其他请求永久关闭
		return &Decision{Verdict: Rejected(ReasonNonceConsumed), Fingerprint: fingerprint, Replayed: true}
	}

	verdict := Verdict{Outcome: record.Outcome, Reason: record.Reason}
	decision := &Decision{Verdict: verdict, Fingerprint: fingerprint, Replayed: true}

	if verdict.IsAuthorized() {
		token, err := e.issue(ctx, request, verdict, fingerprint)
		if err != nil {
			log.Error().Err(err).Msg("Token issuance failed on replay")
			return &Decision{Verdict: Indeterminate(ReasonLedgerUnavailable), Fingerprint: fingerprint, Replayed: true, RetryAfter: e.retryAfter}
		}

		decision.Token = token
	}

	return decision
}

// issue 铸造授权凭证。对非授权判定调用是合同违规，直接崩溃而不是
// 把凭证发给不该拿到的人。
func (e *Engine) issue(ctx context.Context, request SigningRequest, verdict Verdict, fingerprint string) (*Token, error) {
	if !verdict.IsAuthorized() {
		util.LogFromContext(ctx).Panic().
			Str("outcome", string(verdict.Outcome)).
			Str("fingerprint", fingerprint).
			Msg("Token issuance attempted for non-authorized verdict")
	}

	return e.issuer.Issue(request, fingerprint)
}

func (e *Engine) release(ctx context.Context, reservation *Reservation) {
	if err := e.ledger.Release(ctx, reservation); err != nil {
		// 释放失败不致命，租约到期后键自动恢复可预留
		util.LogFromContext(ctx).Warn().Err(err).Msg("Failed to release nonce reservation")
	}
}
