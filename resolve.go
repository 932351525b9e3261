// FILE: lixenwraith/logship/resolve.go
package logship

import (
	"net/url"
	"strings"
	"time"
)

// NormalizeHost reduces a host or full push endpoint to scheme and authority.
// Any path, such as a pasted /loki/api/v1/push, is dropped, so the result is
// stable under re-normalization.
func NormalizeHost(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmtErrorf("remote host is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmtErrorf("invalid remote host '%s': %w", raw, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmtErrorf("invalid remote host '%s': need http(s)://host[:port]", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", fmtErrorf("invalid remote host '%s': query, fragment and userinfo are not allowed", raw)
	}

	return u.Scheme + "://" + u.Host, nil
}

// Resolve decides the active destinations. Stdout is always present and first.
// It never fails: incomplete, invalid or unusable remote settings leave stdout only,
// with a notice describing why.
func Resolve(cfg *Config) Resolution {
	res := Resolution{
		Destinations: []DestinationConfig{{Kind: DestinationStdout}},
	}

	var missing []string
	if strings.TrimSpace(cfg.RemoteURL) == "" {
		missing = append(missing, "host")
	}
	if strings.TrimSpace(cfg.RemoteUser) == "" {
		missing = append(missing, "user")
	}
	if strings.TrimSpace(cfg.RemoteSecret) == "" {
		missing = append(missing, "secret")
	}
	if len(missing) > 0 {
		res.Notice = "remote log shipping disabled, credentials not configured"
		res.NoticeLevel = LevelInfo
		res.NoticeFields = Fields{"missing": strings.Join(missing, ",")}
		return res
	}

	host, err := NormalizeHost(cfg.RemoteURL)
	if err == nil {
		err = cfg.Clone().ValidateRemote()
	}
	if err != nil {
		res.Notice = "remote log shipping disabled, transport unavailable"
		res.NoticeLevel = LevelWarn
		res.NoticeFields = Fields{"error": err.Error()}
		return res
	}

	remote := newRemoteConfig(cfg, host)
	res.Destinations = append(res.Destinations, DestinationConfig{
		Kind:   DestinationRemote,
		Remote: remote,
	})
	res.Notice = "remote log shipping enabled"
	res.NoticeLevel = LevelInfo
	res.NoticeFields = Fields{
		"host":      host,
		"auth_mode": string(remote.Auth.Mode),
		"labels":    len(remote.Labels),
	}
	return res
}

// newRemoteConfig assembles a remote destination from validated settings
func newRemoteConfig(cfg *Config, host string) *RemoteConfig {
	user := strings.TrimSpace(cfg.RemoteUser)
	tenant := strings.TrimSpace(cfg.RemoteTenant)
	if tenant == "" {
		tenant = user
	}

	mode := AuthMode(strings.ToLower(strings.TrimSpace(cfg.RemoteAuth)))
	if mode != AuthBearer {
		mode = AuthBasic
	}

	return &RemoteConfig{
		Host:    host,
		PushURL: host + pushPath,
		Auth: Auth{
			Mode:   mode,
			User:   user,
			Secret: strings.TrimSpace(cfg.RemoteSecret),
		},
		TenantID: tenant,
		Headers:  parseFlatPairs(cfg.RemoteHeaders),
		Labels:   buildLabelSet(ParseLabels(cfg.RemoteLabels), tenant, cfg.Service, cfg.Environment),
		Batch: BatchPolicy{
			MaxEntries:     int(cfg.BatchMaxEntries),
			FlushInterval:  time.Duration(cfg.FlushIntervalMs) * time.Millisecond,
			RequestTimeout: time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		},
		BufferLimit: int(cfg.BufferLimit),
		Gzip:        cfg.RemoteGzip,
		Heartbeat:   time.Duration(cfg.HeartbeatIntervalS) * time.Second,
	}
}
