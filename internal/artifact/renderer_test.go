package artifact

import (
	"bytes"
	"context"
	"crypto/sha256"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testPhoto(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := range 200 {
		for x := range 300 {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 0x40, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test photo: %v", err)
	}
	return buf.Bytes()
}

func render(t *testing.T, spec TicketSpec) []byte {
	t.Helper()
	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(spec)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out
}

func TestRenderIsDeterministic(t *testing.T) {
	spec := TicketSpec{
		RegistrationID: "R-K7KQ3ZJM",
		Name:           "Asha Menon",
		Category:       "individual",
		Photo:          testPhoto(t),
	}
	first := sha256.Sum256(render(t, spec))
	second := sha256.Sum256(render(t, spec))
	if first != second {
		t.Fatal("identical inputs must produce byte-identical tickets")
	}
}

func TestRenderWithoutPhotoIsDeterministic(t *testing.T) {
	spec := TicketSpec{RegistrationID: "R-K7KQ3ZJM", Name: "Asha Menon", Category: "individual"}
	if sha256.Sum256(render(t, spec)) != sha256.Sum256(render(t, spec)) {
		t.Fatal("monogram path must also be deterministic")
	}
}

func TestRenderDiffersByName(t *testing.T) {
	a := render(t, TicketSpec{RegistrationID: "R-A", Name: "Asha Menon", Category: "individual"})
	b := render(t, TicketSpec{RegistrationID: "R-A", Name: "Ravi Kumar", Category: "individual"})
	if sha256.Sum256(a) == sha256.Sum256(b) {
		t.Fatal("different names must render differently")
	}
}

func TestUndecodablePhotoFallsBackToMonogram(t *testing.T) {
	withGarbage := render(t, TicketSpec{
		RegistrationID: "R-A", Name: "Asha Menon", Category: "individual",
		Photo: []byte("not an image"),
	})
	withoutPhoto := render(t, TicketSpec{
		RegistrationID: "R-A", Name: "Asha Menon", Category: "individual",
	})
	if sha256.Sum256(withGarbage) != sha256.Sum256(withoutPhoto) {
		t.Fatal("a broken photo must render exactly like no photo")
	}
}

func TestRenderedTicketIsValidPNG(t *testing.T) {
	out := render(t, TicketSpec{RegistrationID: "R-A", Name: "Asha Menon", Category: "individual"})
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != canvasW || img.Bounds().Dy() != canvasH {
		t.Fatalf("unexpected canvas size %v", img.Bounds())
	}
}

func TestMonogram(t *testing.T) {
	cases := map[string]string{
		"Asha Menon":      "AM",
		"asha menon":      "AM",
		"Cher":            "C",
		"Asha K Menon":    "AK",
		"  asha   menon ": "AM",
		"":                "?",
	}
	for name, want := range cases {
		if got := Monogram(name); got != want {
			t.Errorf("Monogram(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	ref, err := store.Put(ctx, "R-K7KQ3ZJM.png", []byte("ticket-bytes"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "ticket-bytes" {
		t.Fatalf("round trip mangled data: %q", got)
	}

	if _, err := store.Get(ctx, "../etc/passwd"); err == nil {
		t.Fatal("traversal refs must be rejected")
	}
}
