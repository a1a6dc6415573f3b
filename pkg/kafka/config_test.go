package kafka

import "testing"

func TestProducerConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		opts []ProducerOption
		ok   bool
	}{
		{"no brokers", nil, false},
		{"defaults", []ProducerOption{WithBrokers([]string{"localhost:9092"})}, true},
		{"bad compression", []ProducerOption{WithBrokers([]string{"b:9092"}), WithCompression("brotli")}, false},
		{"bad acks", []ProducerOption{WithBrokers([]string{"b:9092"}), WithRequiredAcks(2)}, false},
	}
	for _, tc := range cases {
		cfg := defaultProducerConfig()
		for _, opt := range tc.opts {
			opt(cfg)
		}
		if err := cfg.validate(); (err == nil) != tc.ok {
			t.Fatalf("%s: validate() = %v", tc.name, err)
		}
	}
}

func TestProducerOptions(t *testing.T) {
	cfg := defaultProducerConfig()
	WithClientID("")(cfg)
	WithMaxAttempts(0)(cfg)
	if cfg.ClientID != "signalforge" || cfg.MaxAttempts != 3 {
		t.Fatalf("zero values must keep defaults: %+v", cfg)
	}
	WithClientID("signalforge-eu")(cfg)
	WithHashByKey(true)(cfg)
	if cfg.ClientID != "signalforge-eu" || !cfg.HashByKey {
		t.Fatalf("options not applied: %+v", cfg)
	}
}
