package overlap

import (
	"math"
	"math/rand"
	"testing"
)

func TestSimilarity(t *testing.T) {
	for _, test := range []struct {
		a, b   string
		expect float64
	}{
		{``, ``, 0},
		{``, `abc`, 0},
		{`abc`, ``, 0},
		{`abcde`, `ace`, 3.0 / 5.0},
		{`abc`, `abc`, 1},
		{`abc`, `xyz`, 0},
		{`ünï`, `ünïcode`, 3.0 / 7.0},
	} {
		got := Similarity(test.a, test.b)
		t.Logf(`Similarity(%q, %q) = %v`, test.a, test.b, got)
		if math.Abs(got-test.expect) > 1e-6 {
			t.Errorf(`Similarity(%q, %q) = %v, want %v`, test.a, test.b, got, test.expect)
		}
	}
}

func TestSimilarityProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 300; i++ {
		a := string(randomText(rng, rng.Intn(40), `xyz `))
		b := string(randomText(rng, rng.Intn(40), `xyz `))
		ab, ba := Similarity(a, b), Similarity(b, a)
		if ab != ba {
			t.Fatalf(`Similarity(%q, %q) = %v but reversed = %v`, a, b, ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf(`Similarity(%q, %q) = %v out of [0, 1]`, a, b, ab)
		}
		if a != `` && Similarity(a, a) != 1 {
			t.Fatalf(`Similarity(%q, itself) != 1`, a)
		}
	}
}
