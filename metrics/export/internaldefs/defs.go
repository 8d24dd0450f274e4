package internaldefs

import (
	goGate "github.com/MrEthical07/goGate"
)

// CounterDef maps an engine counter to its exported name.
type CounterDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine latency histogram to its exported name.
type HistogramDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: goGate.MetricRateLimitAllowed, Name: "gogate_rate_limit_allowed_total", Help: "Rate limit checks that allowed the request."},
	{ID: goGate.MetricRateLimitDenied, Name: "gogate_rate_limit_denied_total", Help: "Rate limit checks that denied the request."},
	{ID: goGate.MetricRateLimitUnconfigured, Name: "gogate_rate_limit_unconfigured_total", Help: "Checks against endpoints without a policy, allowed by default."},
	{ID: goGate.MetricRateLimitReset, Name: "gogate_rate_limit_reset_total", Help: "Manual rate limit resets."},
	{ID: goGate.MetricRateLimitBackendError, Name: "gogate_rate_limit_backend_error_total", Help: "Rate limit checks that failed on the backend."},
	{ID: goGate.MetricMFAInitiated, Name: "gogate_mfa_initiated_total", Help: "Opened MFA sessions."},
	{ID: goGate.MetricMFAUnsupportedMethod, Name: "gogate_mfa_unsupported_method_total", Help: "MFA initiations rejected for an unsupported method."},
	{ID: goGate.MetricMFAVerified, Name: "gogate_mfa_verified_total", Help: "MFA sessions moved to VERIFIED."},
	{ID: goGate.MetricMFAFailedAttempt, Name: "gogate_mfa_failed_attempt_total", Help: "Rejected MFA codes."},
	{ID: goGate.MetricMFAAttemptsExceeded, Name: "gogate_mfa_attempts_exceeded_total", Help: "MFA sessions that spent their attempt budget."},
	{ID: goGate.MetricMFAExpired, Name: "gogate_mfa_expired_total", Help: "MFA verifications against expired sessions."},
	{ID: goGate.MetricMFATerminalReplay, Name: "gogate_mfa_terminal_replay_total", Help: "MFA verifications against already completed sessions."},
	{ID: goGate.MetricMFAVerifierError, Name: "gogate_mfa_verifier_error_total", Help: "Verifier errors and panics counted as failed attempts."},
	{ID: goGate.MetricMFABackendError, Name: "gogate_mfa_backend_error_total", Help: "MFA operations that failed on the backend."},
	{ID: goGate.MetricBackupCodesGenerated, Name: "gogate_backup_codes_generated_total", Help: "Backup code sets issued."},
	{ID: goGate.MetricBackupCodeUsed, Name: "gogate_backup_code_used_total", Help: "Redeemed backup codes."},
	{ID: goGate.MetricBackupCodeFailed, Name: "gogate_backup_code_failed_total", Help: "Rejected backup codes."},
	{ID: goGate.MetricBackupCodeRateLimited, Name: "gogate_backup_code_rate_limited_total", Help: "Backup code redemptions blocked by the failure lockout."},
	{ID: goGate.MetricAssertionIssued, Name: "gogate_mfa_assertion_issued_total", Help: "Signed MFA assertions issued."},
	{ID: goGate.MetricSweepRateLimitEvicted, Name: "gogate_sweep_rate_limit_evicted_total", Help: "Rate limit windows evicted by cleanup sweeps."},
	{ID: goGate.MetricSweepMFAEvicted, Name: "gogate_sweep_mfa_evicted_total", Help: "MFA sessions evicted by cleanup sweeps."},
	{ID: goGate.MetricSweepError, Name: "gogate_sweep_error_total", Help: "Failed cleanup sweeps."},
}

// HistogramDefs lists the exported latency histograms.
var HistogramDefs = []HistogramDef{
	{ID: goGate.MetricCheckLimitLatency, Name: "gogate_check_limit_latency_seconds", Help: "CheckLimit latency histogram."},
	{ID: goGate.MetricVerifyMFALatency, Name: "gogate_verify_mfa_latency_seconds", Help: "VerifyMFA latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names each bucket for exporters without label support.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size bucket array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
