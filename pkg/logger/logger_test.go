package logger

import (
	"testing"
	"time"

	"seatboard/backend/config"
)

func TestNewLogger(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)

	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr bool
	}{
		{"json", config.LogConfig{Level: "info", Format: "json"}, false},
		{"console", config.LogConfig{Level: "debug", Format: "console"}, false},
		{"默认格式", config.LogConfig{Level: "warn"}, false},
		{"无效级别", config.LogConfig{Level: "loud", Format: "json"}, true},
		{"无效格式", config.LogConfig{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(&tt.cfg, kst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger() err = %v, wantErr %v", err, tt.wantErr)
			}
			if l != nil {
				_ = l.Sync()
			}
		})
	}
}

func TestNewLogger_NilLocation(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "info", Format: "json"}, nil)
	if err != nil || l == nil {
		t.Fatalf("nil 时区应回退 UTC，err = %v", err)
	}
}
