package goGate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goGate/internal/backup"
)

// GenerateBackupCodes issues Config.MFA.BackupCodeCount fresh single-use
// codes for userID and discards any previous set. The plaintext codes
// are returned once; only their hashes are stored.
func (e *Engine) GenerateBackupCodes(ctx context.Context, userID string) ([]string, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return e.GenerateBackupCodesN(ctx, userID, e.config.MFA.BackupCodeCount)
}

// GenerateBackupCodesN is [Engine.GenerateBackupCodes] with an explicit count.
func (e *Engine) GenerateBackupCodesN(ctx context.Context, userID string, count int) ([]string, error) {
	if e == nil || e.backup == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrBackupCodeInvalidUser
	}
	if count <= 0 {
		return nil, fmt.Errorf("backup code count must be positive, got %d", count)
	}

	codes, err := e.backup.Generate(ctx, userID, count)
	if err != nil {
		e.log().Error("backup code generation failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBackupCodeUnavailable, err)
	}

	e.metricInc(MetricBackupCodesGenerated)
	e.emitAudit(ctx, auditEventBackupCodesGenerated, true, auditFields{userID: userID}, nil, func() map[string]string {
		return map[string]string{"count": strconv.Itoa(len(codes))}
	})
	return codes, nil
}

// RedeemBackupCode consumes code for userID. Codes are compared after
// upper-casing and dropping spaces and dashes, so formatted and raw
// forms are equivalent. Unknown users and spent codes return
// [ErrBackupCodeInvalid].
func (e *Engine) RedeemBackupCode(ctx context.Context, userID, code string) error {
	if e == nil || e.backup == nil {
		return ErrEngineNotReady
	}

	fields := auditFields{userID: userID, endpoint: EndpointBackupCode}
	ok, err := e.backup.Redeem(ctx, userID, code)
	switch {
	case errors.Is(err, backup.ErrRateLimited):
		e.metricInc(MetricBackupCodeRateLimited)
		e.emitAudit(ctx, auditEventBackupCodeFailed, false, fields, ErrBackupCodeRateLimited, nil)
		return ErrBackupCodeRateLimited
	case err != nil && !ok:
		e.log().Error("backup code redemption failed", "error", err)
		return fmt.Errorf("%w: %v", ErrBackupCodeUnavailable, err)
	case err != nil:
		// code consumed, only the failure counter reset failed
		e.log().Warn("backup code limiter reset failed", "error", err)
	case !ok:
		e.metricInc(MetricBackupCodeFailed)
		e.emitAudit(ctx, auditEventBackupCodeFailed, false, fields, ErrBackupCodeInvalid, nil)
		return ErrBackupCodeInvalid
	}

	e.metricInc(MetricBackupCodeUsed)
	e.emitAudit(ctx, auditEventBackupCodeUsed, true, fields, nil, nil)
	return nil
}

// VerifyBackupCode reports whether code was an unused backup code of
// userID, consuming it on success.
func (e *Engine) VerifyBackupCode(ctx context.Context, userID, code string) bool {
	return e.RedeemBackupCode(ctx, userID, code) == nil
}

// BackupCodesRemaining counts the unused codes of userID.
func (e *Engine) BackupCodesRemaining(ctx context.Context, userID string) (int, error) {
	if e == nil || e.backup == nil {
		return 0, ErrEngineNotReady
	}
	n, err := e.backup.Remaining(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackupCodeUnavailable, err)
	}
	return n, nil
}
