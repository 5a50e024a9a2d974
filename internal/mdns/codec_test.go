package mdns

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeQueryLayout(t *testing.T) {
	pkt, err := EncodeQuery()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := []byte{
		0xFE, 0xED, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x0B, '_', 'g', 'o', 'o', 'g', 'l', 'e', 'c', 'a', 's', 't',
		0x04, '_', 't', 'c', 'p',
		0x05, 'l', 'o', 'c', 'a', 'l',
		0x00,
		0x00, 0x0C, 0x80, 0x01,
	}
	if !bytes.Equal(pkt, want) {
		t.Fatalf("query bytes:\n got %x\nwant %x", pkt, want)
	}
}

func TestDecodeCannedIPv4Response(t *testing.T) {
	record, err := DecodeResponse(CannedResponseIPv4)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if record.ID != "63970hbc22h26b6b2a0492825db8d2f4" {
		t.Errorf("id = %q", record.ID)
	}
	if record.Name != "Den TV" {
		t.Errorf("name = %q", record.Name)
	}
	if record.Model != "Chromecast" {
		t.Errorf("model = %q", record.Model)
	}
	if record.Port != 8009 {
		t.Errorf("port = %d", record.Port)
	}
	if record.Addr4 != "10.12.1.141" {
		t.Errorf("addr4 = %q", record.Addr4)
	}
	if record.Addr6 != "" {
		t.Errorf("addr6 = %q, want empty", record.Addr6)
	}
}

func TestDecodeCannedIPv6Response(t *testing.T) {
	record, err := DecodeResponse(CannedResponseIPv6)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if record.ID != "6b0h3b26023d232e072a2be28a24b7b7" {
		t.Errorf("id = %q", record.ID)
	}
	if record.Name != "TST Chrome Panel" {
		t.Errorf("name = %q", record.Name)
	}
	if record.Model != "Chromecast Ultra" {
		t.Errorf("model = %q", record.Model)
	}
	if record.Port != 8009 {
		t.Errorf("port = %d", record.Port)
	}
	if record.Addr4 != "10.12.1.116" {
		t.Errorf("addr4 = %q", record.Addr4)
	}
	if record.Addr6 != "2016:cd8:4567:2cd0::12::" {
		t.Errorf("addr6 = %q", record.Addr6)
	}
}

func TestDecodeRejectsHeaderMismatch(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(pkt []byte)
	}{
		{"wrong transaction id", func(pkt []byte) { pkt[0] = 0x00 }},
		{"wrong flags", func(pkt []byte) { pkt[2] = 0x00 }},
		{"unexpected question", func(pkt []byte) { pkt[5] = 0x01 }},
		{"no answer", func(pkt []byte) { pkt[7] = 0x00 }},
		{"answer not PTR", func(pkt []byte) { pkt[37] = 0x10 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pkt := bytes.Clone(CannedResponseIPv4)
			tc.mutate(pkt)
			if _, err := DecodeResponse(pkt); !errors.Is(err, ErrBadResponse) {
				t.Fatalf("decode err = %v, want ErrBadResponse", err)
			}
		})
	}
}

func TestDecodeRejectsTruncatedDatagram(t *testing.T) {
	for _, n := range []int{0, 8, 12, 40} {
		if _, err := DecodeResponse(CannedResponseIPv4[:n]); !errors.Is(err, ErrBadResponse) {
			t.Fatalf("decode %d byte prefix err = %v, want ErrBadResponse", n, err)
		}
	}
}

func TestDecodeRejectsOversizedDatagram(t *testing.T) {
	pkt := make([]byte, MessageLimit+1)
	if _, err := DecodeResponse(pkt); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("decode err = %v, want ErrBadResponse", err)
	}
}

func TestDecodeRejectsCompressionPointerLoop(t *testing.T) {
	pkt := []byte{
		0xFE, 0xED, 0x84, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
		0xC0, 0x0C,
	}
	if _, err := DecodeResponse(pkt); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("decode err = %v, want ErrBadResponse", err)
	}
}

func TestDecodeRejectsLabelOverrun(t *testing.T) {
	pkt := []byte{
		0xFE, 0xED, 0x84, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
		0x05, 'a', 'b',
	}
	if _, err := DecodeResponse(pkt); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("decode err = %v, want ErrBadResponse", err)
	}
}

func TestDecodeTXTTruncatedSegmentKeepsPriorAttributes(t *testing.T) {
	rdata := []byte{
		0x05, 'i', 'd', '=', 'a', 'b',
		0x20, 'f', 'n', '=', 'x',
	}
	record := &Record{}
	decodeTXT(rdata, record)
	if record.ID != "ab" {
		t.Fatalf("id = %q, want %q", record.ID, "ab")
	}
	if record.Name != "" {
		t.Fatalf("name = %q, want empty", record.Name)
	}
}

func TestFormatIPv6(t *testing.T) {
	cases := []struct {
		rdata []byte
		want  string
	}{
		{make([]byte, 16), ":::::::"},
		{[]byte{
			0xFE, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x02, 0x1B, 0x44, 0xFF, 0xFE, 0x11, 0x32, 0x2D,
		}, "fe80::::21b:44ff:fe11:322d"},
		{[]byte{
			0x20, 0x16, 0x0C, 0xD8, 0x45, 0x67, 0x2C, 0xD0,
			0x00, 0x00, 0x00, 0x12, 0x00, 0x00, 0x00, 0x00,
		}, "2016:cd8:4567:2cd0::12::"},
	}
	for _, tc := range cases {
		if got := formatIPv6(tc.rdata); got != tc.want {
			t.Errorf("formatIPv6(%x) = %q, want %q", tc.rdata, got, tc.want)
		}
	}
}
