package config

const (
	defaultDataDir            = "~/.local/share/danmusync"
	defaultDanmakuDir         = "~/.local/share/danmusync/danmaku"
	defaultLogDir             = "~/.local/share/danmusync/logs"
	defaultWebhookBind        = "127.0.0.1:7768"
	defaultEmbyTimeoutSeconds = 5
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			DanmakuDir: defaultDanmakuDir,
			LogDir:     defaultLogDir,
		},
		Webhook: Webhook{
			Bind: defaultWebhookBind,
		},
		Emby: Emby{
			TimeoutSeconds: defaultEmbyTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			SearchEnqueued: true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
