package block

import "testing"

func TestBlockCompressDecompressRoundTrip(t *testing.T) {
	b := NewRaw([]byte("aaaabbbcc"))
	if b.GetState() != StateRawReady {
		t.Fatalf("state = %v, want RAW_READY", b.GetState())
	}

	b.SetState(StateProcessing)
	b.Compress()
	if b.GetState() != StateReady {
		t.Fatalf("state after Compress = %v, want READY (err=%v)", b.GetState(), b.Err)
	}

	zb := NewZData(b.ZData, b.ZDataSize, b.Table)
	if zb.GetState() != StateZDataReady {
		t.Fatalf("state = %v, want ZDATA_READY", zb.GetState())
	}

	zb.SetState(StateProcessing)
	zb.Decompress()
	if zb.GetState() != StateReady {
		t.Fatalf("state after Decompress = %v, want READY (err=%v)", zb.GetState(), zb.Err)
	}
	if string(zb.Raw) != "aaaabbbcc" {
		t.Errorf("Raw = %q, want %q", zb.Raw, "aaaabbbcc")
	}
}

func TestBlockDestroyClearsBuffers(t *testing.T) {
	b := NewRaw([]byte("x"))
	b.SetState(StateProcessing)
	b.Compress()
	b.Destroy()

	if b.Raw != nil || b.ZData != nil || b.Table != nil || b.Tree != nil {
		t.Error("Destroy did not clear all buffers")
	}
	for i, leaf := range b.Dictionary {
		if leaf != nil {
			t.Errorf("Dictionary[%d] not cleared", i)
		}
	}
}
