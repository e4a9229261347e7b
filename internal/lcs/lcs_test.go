package lcs

import (
	"math"
	"math/rand"
	"strings"
	"testing"
)

func TestLength(t *testing.T) {
	for _, test := range []struct {
		a, b   string
		expect int
	}{
		{``, ``, 0},
		{`abc`, ``, 0},
		{``, `abc`, 0},
		{`abcde`, `ace`, 3},
		{`ace`, `abcde`, 3},
		{`abc`, `abc`, 3},
		{`abc`, `def`, 0},
		{`AGGTAB`, `GXTXAYB`, 4},
		{`aaaa`, `aa`, 2},
	} {
		got := Length([]rune(test.a), []rune(test.b))
		t.Logf(`Length(%q, %q) = %d`, test.a, test.b, got)
		if got != test.expect {
			t.Errorf(`Length(%q, %q) = %d, want %d`, test.a, test.b, got, test.expect)
		}
	}
}

// naiveLength fills the full matrix so the single-row version has something to agree with.
func naiveLength(a, b []byte) int {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				dp[i][j] = dp[i-1][j-1] + 1
			case dp[i-1][j] >= dp[i][j-1]:
				dp[i][j] = dp[i-1][j]
			default:
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	return dp[len(a)][len(b)]
}

func TestLengthAgreesWithMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a := randomBytes(rng, rng.Intn(24), `abc`)
		b := randomBytes(rng, rng.Intn(24), `abc`)
		if got, want := Length(a, b), naiveLength(a, b); got != want {
			t.Fatalf(`Length(%q, %q) = %d, want %d`, a, b, got, want)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio([]rune(`abcde`), []rune(`ace`)); math.Abs(got-3.0/5.0) > 1e-6 {
		t.Errorf(`Ratio(abcde, ace) = %v, want 0.6`, got)
	}
	if got := Ratio([]rune(``), []rune(`abc`)); got != 0 {
		t.Errorf(`Ratio("", abc) = %v, want 0`, got)
	}
	if got := Ratio([]rune(`same`), []rune(`same`)); got != 1 {
		t.Errorf(`Ratio(same, same) = %v, want 1`, got)
	}
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		a := randomBytes(rng, rng.Intn(32), `ab `)
		b := randomBytes(rng, rng.Intn(32), `ab `)
		ab, ba := Ratio(a, b), Ratio(b, a)
		if ab != ba {
			t.Fatalf(`Ratio(%q, %q) = %v but Ratio(%q, %q) = %v`, a, b, ab, b, a, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf(`Ratio(%q, %q) = %v out of bounds`, a, b, ab)
		}
	}
}

func BenchmarkLength(b *testing.B) {
	x := []rune(strings.Repeat(`abcde`, 1000))
	y := []rune(strings.Repeat(`abXde`, 1000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Length(x, y)
	}
}

func randomBytes(rng *rand.Rand, n int, alphabet string) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return out
}
