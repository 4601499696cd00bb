package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Logging struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"json"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Engine struct {
		Timeframe        string        `yaml:"timeframe" default:"15m"`
		ConfirmTimeframe string        `yaml:"confirm_timeframe" default:"1h"`
		CandleLimit      int           `yaml:"candle_limit" default:"150"`
		TickInterval     time.Duration `yaml:"tick_interval" default:"60s"`
		Universe         []string      `yaml:"universe"`
		Weights          struct {
			FVG     float64 `yaml:"fvg" default:"0.35"`
			RR      float64 `yaml:"rr" default:"0.25"`
			OBI     float64 `yaml:"obi" default:"0.15"`
			News    float64 `yaml:"news" default:"0.10"`
			Whale   float64 `yaml:"whale" default:"0.10"`
			OnChain float64 `yaml:"onchain" default:"0.05"`
		} `yaml:"weights"`
	} `yaml:"engine"`
	Risk struct {
		Mode              string        `yaml:"mode" default:"SAFE"`
		TradingHoursStart string        `yaml:"trading_hours_start"`
		TradingHoursEnd   string        `yaml:"trading_hours_end"`
		TradingHoursZone  string        `yaml:"trading_hours_zone" default:"UTC"`
		NewsMute          time.Duration `yaml:"news_mute"`
		BreakerThreshold  float64       `yaml:"breaker_threshold" default:"-3.5"`
		MaxDailyTrades    int           `yaml:"max_daily_trades" default:"4"`
		MaxSymbolSignals  int           `yaml:"max_symbol_signals" default:"3"`
		RRMin             float64       `yaml:"rr_min" default:"1.2"`
		EdgeThreshold     float64       `yaml:"edge_threshold" default:"0.62"`
		VolThrottleATRPct float64       `yaml:"vol_throttle_atr_pct" default:"0.02"`
	} `yaml:"risk"`
	Lifecycle struct {
		AutoApproveConf  float64       `yaml:"auto_approve_conf" default:"0.80"`
		AutoApproveAfter time.Duration `yaml:"auto_approve_after" default:"120s"`
		AutoRejectConf   float64       `yaml:"auto_reject_conf" default:"0.60"`
		AutoRejectAfter  time.Duration `yaml:"auto_reject_after" default:"600s"`
		FixedNotional    float64       `yaml:"fixed_notional" default:"100"`
		SweepInterval    time.Duration `yaml:"sweep_interval" default:"10s"`
	} `yaml:"lifecycle"`
	Autoscan struct {
		Interval      time.Duration `yaml:"interval" default:"6h"`
		MinVolume     float64       `yaml:"min_volume" default:"3000000"`
		MaxVolume     float64       `yaml:"max_volume" default:"60000000"`
		RRMin         float64       `yaml:"rr_min" default:"0.90"`
		EdgeThreshold float64       `yaml:"edge_threshold" default:"0.55"`
		RRFloor       float64       `yaml:"rr_floor" default:"0.80"`
		EdgeFloor     float64       `yaml:"edge_floor" default:"0.50"`
		MaxRelaxSteps int           `yaml:"max_relax_steps" default:"10"`
		Limit         int           `yaml:"limit" default:"3"`
		Exclude       []string      `yaml:"exclude"`
	} `yaml:"autoscan"`
	Planner struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout" default:"8s"`
	} `yaml:"planner"`
	Sentiment struct {
		NewsURL         string        `yaml:"news_url"`
		WhaleURL        string        `yaml:"whale_url"`
		OnChainURL      string        `yaml:"onchain_url"`
		Timeout         time.Duration `yaml:"timeout" default:"5s"`
		RefreshInterval time.Duration `yaml:"refresh_interval" default:"5m"`
		CacheTTL        time.Duration `yaml:"cache_ttl" default:"10m"`
	} `yaml:"sentiment"`
	Venue struct {
		BaseURL        string        `yaml:"base_url" default:"https://api.binance.com"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://stream.binance.com:9443/ws"`
		FallbackURL    string        `yaml:"fallback_url"`
		APIKey         string        `yaml:"api_key"`
		APISecret      string        `yaml:"api_secret"`
		Timeout        time.Duration `yaml:"timeout" default:"10s"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		RequestsPerSec float64       `yaml:"requests_per_sec" default:"10"`
		Burst          int           `yaml:"burst" default:"20"`
	} `yaml:"venue"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"signals.emitted"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"edgepulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Postgres struct {
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"5432"`
		Database    string        `yaml:"database" default:"edgepulse"`
		User        string        `yaml:"user" default:"postgres"`
		Password    string        `yaml:"password"`
		SSLMode     string        `yaml:"ssl_mode" default:"disable"`
		MaxConns    int           `yaml:"max_conns" default:"10"`
		ConnTimeout time.Duration `yaml:"conn_timeout" default:"5s"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Venue.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		c.Venue.APISecret = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Engine.Universe = strings.Split(v, ",")
	}
	if v := os.Getenv("RISK_MODE"); v != "" {
		c.Risk.Mode = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PLANNER_URL"); v != "" {
		c.Planner.URL = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Risk.Mode {
	case "SAFE", "HYBRID", "ON":
	default:
		return fmt.Errorf("risk.mode must be SAFE, HYBRID or ON, got '%s'", c.Risk.Mode)
	}
	if len(c.Engine.Universe) == 0 {
		return fmt.Errorf("engine.universe cannot be empty")
	}
	if c.Engine.CandleLimit < 2 {
		return fmt.Errorf("engine.candle_limit must be at least 2")
	}
	if (c.Risk.TradingHoursStart == "") != (c.Risk.TradingHoursEnd == "") {
		return fmt.Errorf("risk.trading_hours_start and risk.trading_hours_end must be set together")
	}
	if c.Autoscan.MinVolume >= c.Autoscan.MaxVolume {
		return fmt.Errorf("autoscan.min_volume must be below autoscan.max_volume")
	}
	w := c.Engine.Weights
	for _, v := range []float64{w.FVG, w.RR, w.OBI, w.News, w.Whale, w.OnChain} {
		if v < 0 {
			return fmt.Errorf("engine.weights must be non-negative")
		}
	}
	return nil
}
