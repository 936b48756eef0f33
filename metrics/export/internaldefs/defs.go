package internaldefs

import (
	"github.com/MrEthical07/credvault"
)

// BucketCount matches the engine's latency histogram.
const BucketCount = 8

// CounterDef names one engine counter.
type CounterDef struct {
	ID   credvault.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   credvault.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: credvault.MetricRegisterSuccess, Name: "credvault_register_success_total", Help: "Identities created."},
	{ID: credvault.MetricRegisterDuplicate, Name: "credvault_register_duplicate_total", Help: "Registrations rejected for an existing email."},
	{ID: credvault.MetricRegisterFailure, Name: "credvault_register_failure_total", Help: "Registrations failing for other reasons."},
	{ID: credvault.MetricLoginSuccess, Name: "credvault_login_success_total", Help: "Successful logins."},
	{ID: credvault.MetricLoginFailure, Name: "credvault_login_failure_total", Help: "Logins rejected as invalid credentials."},
	{ID: credvault.MetricLoginError, Name: "credvault_login_error_total", Help: "Logins failing with a transient or internal error."},
	{ID: credvault.MetricPasswordRehash, Name: "credvault_password_rehash_total", Help: "Password digests upgraded on login."},
	{ID: credvault.MetricRefreshSuccess, Name: "credvault_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: credvault.MetricRefreshFailure, Name: "credvault_refresh_failure_total", Help: "Refresh secrets rejected as unknown, used or expired."},
	{ID: credvault.MetricRefreshError, Name: "credvault_refresh_error_total", Help: "Refresh rotations failing with a transient or internal error."},
	{ID: credvault.MetricLogout, Name: "credvault_logout_total", Help: "Completed logouts."},
	{ID: credvault.MetricLogoutBlocklistFailure, Name: "credvault_logout_blocklist_failure_total", Help: "Logouts whose access token could not be blocklisted."},
	{ID: credvault.MetricAuthenticateSuccess, Name: "credvault_authenticate_success_total", Help: "Bearer tokens resolved to an identity."},
	{ID: credvault.MetricAuthenticateFailure, Name: "credvault_authenticate_failure_total", Help: "Bearer tokens rejected as unauthorized."},
	{ID: credvault.MetricAuthenticateRevoked, Name: "credvault_authenticate_revoked_total", Help: "Bearer tokens found on the blocklist."},
	{ID: credvault.MetricAuthenticateError, Name: "credvault_authenticate_error_total", Help: "Authentications failing with a transient or internal error."},
	{ID: credvault.MetricPurgedBlocklist, Name: "credvault_purged_blocklist_total", Help: "Expired blocklist entries deleted."},
	{ID: credvault.MetricPurgedRefresh, Name: "credvault_purged_refresh_total", Help: "Refresh records deleted after retention."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: credvault.MetricAuthenticateLatency, Name: "credvault_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "credvault_audit_dropped_total"

// HistogramBounds are the upper bounds in seconds, Prometheus "le" form.
var HistogramBounds = [BucketCount]string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds made safe for instrument names.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero filling missing buckets.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
