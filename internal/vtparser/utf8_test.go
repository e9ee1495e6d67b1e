package vtparser

import "testing"

// decodeAll feeds input byte by byte and returns every outcome except
// Incomplete, i.e. only the outcomes the parser acts on.
func decodeAll(t *testing.T, input []byte) []decoded {
	t.Helper()
	var d utf8Decoder
	var out []decoded
	for _, b := range input {
		for _, o := range d.feed(b) {
			if o.result != resultIncomplete {
				out = append(out, o)
			}
		}
	}
	return out
}

func TestUTF8DecoderASCII(t *testing.T) {
	out := decodeAll(t, []byte("Ab1"))
	want := []rune{'A', 'b', '1'}
	if len(out) != len(want) {
		t.Fatalf("got %d outcomes, want %d", len(out), len(want))
	}
	for i, d := range out {
		if d.result != resultSuccess || d.r != want[i] {
			t.Errorf("outcome %d = %+v, want success %q", i, d, want[i])
		}
	}
}

func TestUTF8DecoderMultiByte(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  rune
	}{
		{"two byte", []byte{0xC2, 0xA9}, 0xA9},
		{"three byte", []byte{0xE2, 0x82, 0xAC}, 0x20AC},
		{"four byte", []byte{0xF0, 0x9F, 0x98, 0x80}, 0x1F600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := decodeAll(t, tt.input)
			if len(out) != 1 || out[0].result != resultSuccess || out[0].r != tt.want {
				t.Fatalf("decodeAll(%v) = %+v, want single success %U", tt.input, out, tt.want)
			}
		})
	}
}

func TestUTF8DecoderOverlong(t *testing.T) {
	// 0xC0 0x80 is an overlong encoding of NUL: rejected even though the
	// bit pattern is well-formed.
	out := decodeAll(t, []byte{0xC0, 0x80})
	if len(out) != 1 || out[0].result != resultInvalid {
		t.Fatalf("overlong sequence = %+v, want a single Invalid outcome", out)
	}
}

func TestUTF8DecoderSurrogate(t *testing.T) {
	// U+D800 encoded as a (structurally valid) three-byte sequence.
	out := decodeAll(t, []byte{0xED, 0xA0, 0x80})
	if len(out) != 1 || out[0].result != resultInvalid {
		t.Fatalf("surrogate sequence = %+v, want a single Invalid outcome", out)
	}
}

func TestUTF8DecoderAboveMax(t *testing.T) {
	// 0xF4 0x90 0x80 0x80 encodes U+110000, just past the U+10FFFF ceiling.
	out := decodeAll(t, []byte{0xF4, 0x90, 0x80, 0x80})
	if len(out) != 1 || out[0].result != resultInvalid {
		t.Fatalf("above-max sequence = %+v, want a single Invalid outcome", out)
	}
}

func TestUTF8DecoderStrayContinuation(t *testing.T) {
	out := decodeAll(t, []byte{0x80})
	if len(out) != 1 || out[0].result != resultInvalid {
		t.Fatalf("stray continuation byte = %+v, want a single Invalid outcome", out)
	}
}

func TestUTF8DecoderTruncatedThenASCII(t *testing.T) {
	// 0xC3 starts a two-byte sequence; '(' (0x28) can't continue it, so the
	// sequence is abandoned as Invalid and '(' decodes on its own.
	out := decodeAll(t, []byte{0xC3, 0x28})
	if len(out) != 2 {
		t.Fatalf("got %d outcomes, want 2: %+v", len(out), out)
	}
	if out[0].result != resultInvalid || out[0].r != replacementChar {
		t.Errorf("outcome 0 = %+v, want Invalid(U+FFFD)", out[0])
	}
	if out[1].result != resultSuccess || out[1].r != '(' {
		t.Errorf("outcome 1 = %+v, want Print('(')", out[1])
	}
}

func TestUTF8DecoderTruncatedThenLead(t *testing.T) {
	// A lead byte arriving while another sequence is mid-flight abandons
	// the first (Invalid) and starts decoding the second, which can't
	// complete within the same call.
	out := decodeAll(t, []byte{0xC3, 0xC2, 0xA9})
	if len(out) != 2 {
		t.Fatalf("got %d outcomes, want 2: %+v", len(out), out)
	}
	if out[0].result != resultInvalid {
		t.Errorf("outcome 0 = %+v, want Invalid", out[0])
	}
	if out[1].result != resultSuccess || out[1].r != 0xA9 {
		t.Errorf("outcome 1 = %+v, want success U+00A9", out[1])
	}
}

func TestUTF8DecoderStreamingAcrossFeeds(t *testing.T) {
	var d utf8Decoder
	var out []decoded
	// Same three-byte sequence as TestUTF8DecoderMultiByte, split one byte
	// per call: feeding it in pieces must behave identically to feeding it
	// whole.
	for _, b := range []byte{0xE2, 0x82, 0xAC} {
		for _, o := range d.feed(b) {
			if o.result != resultIncomplete {
				out = append(out, o)
			}
		}
	}
	if len(out) != 1 || out[0].result != resultSuccess || out[0].r != 0x20AC {
		t.Fatalf("streamed decode = %+v, want single success U+20AC", out)
	}
}
