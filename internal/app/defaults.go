package app

// defaults apply when neither the config file nor the environment sets a key.
// List values are comma separated, matching config.Config.GetArray.
var defaults = map[string]any{
	"app.tz":                                        "UTC",
	"app.server.max_goroutine":                      100,
	"app.server.http.address":                       ":8080",
	"app.server.http.read_timeout_seconds":          10,
	"app.server.http.read_header_timeout_seconds":   5,
	"app.server.http.write_timeout_seconds":         10,
	"app.server.http.idle_timeout_seconds":          60,
	"app.server.shutdown_timeout_seconds":           10,
	"instrument.enabled":                            false,
	"instrument.service_name":                       "cardnote",
	"instrument.trace_sample_ratio":                 1.0,
	"instrument.metric_interval_seconds":            15,
	"instrument.log_level":                          "info",
	"instrument.log_mask_fields":                    "code,password,ticket,authorization,email",
	"jwt.issuer":                                    "cardnote",
	"jwt.audiences":                                 "identity",
	"jwt.ttl_minutes":                               10,
	"mail.driver":                                   "log",
	"mail.port":                                     587,
	"messaging.driver":                              "noop",
	"messaging.kafka.required_acks":                 1,
	"modules.verification.store":                    "memory",
	"modules.verification.code_length":              6,
	"modules.verification.alphabet":                 "numeric",
	"modules.verification.ttl_seconds":              300,
	"modules.verification.max_attempts":             3,
	"modules.verification.lock_seconds":             900,
	"modules.verification.cooldown_seconds":         60,
	"modules.verification.retention_grace_seconds":  300,
	"modules.verification.reap_interval_seconds":    60,
	"modules.verification.reset_attempts_on_resend": true,
	"modules.verification.lock_blocks_reissue":      true,
	"modules.verification.ticket_enabled":           true,
}
