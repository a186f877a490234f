package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"onetomany/ring"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEncodeVerifyRoundTrip(t *testing.T) {
	for _, n := range []int{MinPayloadSize, 64, 200} {
		p := make([]byte, n)
		Encode(p, 12345)
		seq, ok := Verify(p)
		if !ok || seq != 12345 {
			t.Fatalf("size %d: Verify = (%d,%v)", n, seq, ok)
		}
	}
}

func TestVerifyDetectsDamage(t *testing.T) {
	p := make([]byte, 64)
	Encode(p, 7)

	for _, i := range []int{0, 9, 31, 63} {
		q := append([]byte(nil), p...)
		q[i] ^= 0x01
		if _, ok := Verify(q); ok {
			t.Fatalf("flip at byte %d went unnoticed", i)
		}
	}
	if _, ok := Verify(p[:MinPayloadSize-1]); ok {
		t.Fatal("short payload accepted")
	}
}

func TestConfigDefaults(t *testing.T) {
	c, err := Config{}.withDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if c.Scenario != ScenarioUnicast || c.Consumers != 1 || c.PowSize == 0 || c.Messages == 0 || c.PayloadSize == 0 {
		t.Fatalf("defaults = %+v", c)
	}
	c, _ = Config{Scenario: ScenarioPipeline}.withDefaults()
	if c.Consumers != 3 {
		t.Fatalf("pipeline consumers = %d", c.Consumers)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		cfg  Config
		want error
	}{
		{Config{Scenario: "fanout"}, ErrScenario},
		{Config{PayloadSize: 16}, ErrPayloadSize},
		{Config{PowSize: 10, PayloadSize: 100}, ErrPayloadSize},
		{Config{Messages: -1}, ErrMessages},
		{Config{PowSize: 4}, ring.ErrPowSize},
	}
	for _, c := range cases {
		if _, err := Run(ctx, c.cfg); !errors.Is(err, c.want) {
			t.Fatalf("Run(%+v) err = %v, want %v", c.cfg, err, c.want)
		}
	}
}

func TestRunUnicast(t *testing.T) {
	rep, err := Run(context.Background(), Config{
		Scenario: ScenarioUnicast,
		PowSize:  12,
		Messages: 20_000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !rep.OK() {
		t.Fatalf("report not clean: %+v", rep)
	}
	if rep.RecordLength != 192 || rep.MsgsPerSec <= 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunPipeline(t *testing.T) {
	rep, err := Run(context.Background(), Config{
		Scenario:    ScenarioPipeline,
		PowSize:     12,
		Messages:    20_000,
		PayloadSize: 100,
		Slack:       -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Delivered) != 3 || !rep.OK() {
		t.Fatalf("report not clean: %+v", rep)
	}
	if rep.RecordLength != 128 {
		t.Fatalf("record length without slack = %d", rep.RecordLength)
	}
}

func TestRunPinned(t *testing.T) {
	rep, err := Run(context.Background(), Config{PowSize: 12, Messages: 2_000, Pin: true})
	if err != nil {
		t.Fatal(err)
	}
	if !rep.OK() {
		t.Fatalf("report not clean: %+v", rep)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := Run(ctx, Config{PowSize: 12, Messages: 1_000})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if rep.OK() {
		t.Fatal("cancelled run must not report success")
	}
}

func TestRunDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Run(ctx, Config{PowSize: 12, Messages: 1 << 30})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestVerifierCountsOutOfOrder(t *testing.T) {
	r := ring.MustNew(10, 1)
	v := &verifier{}
	p := make([]byte, 48)
	for _, seq := range []uint64{0, 1, 3, 4} {
		Encode(p, seq)
		r.Write(int32(seq), p)
	}
	p[len(p)-1] ^= 0xFF
	r.Write(5, p)

	r.Read(0, v.handle)
	if v.delivered.Load() != 5 || v.outOfOrder.Load() != 1 || v.corrupt.Load() != 1 {
		t.Fatalf("delivered=%d outOfOrder=%d corrupt=%d",
			v.delivered.Load(), v.outOfOrder.Load(), v.corrupt.Load())
	}
}
