package wire

import (
	"strings"
	"testing"
)

func TestDecode_Hello(t *testing.T) {
	data := []byte(`{"type":"HELLO","router_id":"r2","iface":"r2-eth0","bw":80.0,"delay":7.0,"seen":["r1","r5"]}`)

	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hello, ok := msg.(Hello)
	if !ok {
		t.Fatalf("expected Hello, got %T", msg)
	}
	if hello.RouterID != "r2" || hello.Iface != "r2-eth0" {
		t.Errorf("unexpected hello: %+v", hello)
	}
	if hello.Bandwidth != 80.0 || hello.Delay != 7.0 {
		t.Errorf("unexpected link attributes: %+v", hello)
	}
	if len(hello.Seen) != 2 || hello.Seen[0] != "r1" || hello.Seen[1] != "r5" {
		t.Errorf("unexpected seen list: %v", hello.Seen)
	}
}

func TestDecode_LSA(t *testing.T) {
	data := []byte(`{"type":"LSA","origin":"r2","seq":14,"ts":1700000000.0,` +
		`"links":[{"peer":"r1","bw":20,"delay":5},{"peer":"r5","bw":80,"delay":7}],` +
		`"stubs":["10.0.25.0/24"]}`)

	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lsa, ok := msg.(LSA)
	if !ok {
		t.Fatalf("expected LSA, got %T", msg)
	}
	if lsa.Origin != "r2" || lsa.Seq != 14 {
		t.Errorf("unexpected lsa identity: %+v", lsa)
	}
	if len(lsa.Links) != 2 || lsa.Links[1].Peer != "r5" || lsa.Links[1].Bandwidth != 80 {
		t.Errorf("unexpected links: %+v", lsa.Links)
	}
	if len(lsa.Stubs) != 1 || lsa.Stubs[0] != "10.0.25.0/24" {
		t.Errorf("unexpected stubs: %v", lsa.Stubs)
	}
}

func TestDecode_Intent(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"INTENT","src":"pc1","dst":"pc5","min_bandwidth":30}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intent, ok := msg.(Intent)
	if !ok {
		t.Fatalf("expected Intent, got %T", msg)
	}
	if intent.Src != "pc1" || intent.Dst != "pc5" {
		t.Errorf("unexpected key: %+v", intent)
	}
	if intent.MinBandwidth == nil || *intent.MinBandwidth != 30 {
		t.Errorf("expected min_bandwidth 30, got %v", intent.MinBandwidth)
	}
	if intent.MaxLatency != nil {
		t.Errorf("expected unset max_latency, got %v", *intent.MaxLatency)
	}
}

func TestDecode_IntentDelete(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"INTENT_DELETE","src":"pc1","dst":"pc5"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := msg.(IntentDelete); !ok {
		t.Fatalf("expected IntentDelete, got %T", msg)
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"bad json", `{"type":"HELLO"`},
		{"unknown type", `{"type":"GOODBYE","router_id":"r1"}`},
		{"hello missing fields", `{"type":"HELLO"}`},
		{"lsa missing origin", `{"type":"LSA","seq":3}`},
		{"empty", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode([]byte(tc.data)); err == nil {
				t.Errorf("expected error for %q", tc.data)
			}
		})
	}
}

func TestEncode_RoundTripStampsType(t *testing.T) {
	data, err := Encode(Hello{RouterID: "r1", Iface: "r1-eth0", Seen: []string{}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(string(data), `"type":"HELLO"`) {
		t.Errorf("type not stamped: %s", data)
	}

	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, ok := msg.(Hello); !ok {
		t.Fatalf("expected Hello, got %T", msg)
	}
}

func TestEncode_OversizedLSARejected(t *testing.T) {
	lsa := LSA{Origin: "r1", Seq: 1}
	for i := 0; i < 200; i++ {
		lsa.Stubs = append(lsa.Stubs, "10.200.100.0/24")
	}

	if _, err := Encode(lsa); err == nil {
		t.Fatal("expected oversized LSA to be rejected")
	}
}
