package main

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/swdunlop/overlap-go"
)

func runBench(ctx context.Context) error {
	if _, err := loadConfiguration(); err != nil {
		return err
	}
	text := []rune(strings.Repeat(`abcd`, 50000))
	pattern := []rune(`bcda`)
	for _, it := range []struct {
		name string
		m    overlap.Matcher
	}{
		{`kmp`, overlap.KMP},
		{`rabin-karp`, overlap.RabinKarp},
	} {
		start := time.Now()
		n := len(it.m.FindAll(text, pattern))
		fmt.Printf("%-10s %8d matches in %v\n", it.name, n, time.Since(start))
	}

	rng := rand.New(rand.NewSource(1))
	a, b := randomText(rng, 5000), randomText(rng, 5000)
	start := time.Now()
	ratio := overlap.Similarity(a, b)
	fmt.Printf("%-10s %8.6f ratio  in %v\n", `lcs`, ratio, time.Since(start))
	return ctx.Err()
}

func randomText(rng *rand.Rand, n int) string {
	const alphabet = `abcdefghijklmnopqrstuvwxyz`
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[rng.Intn(len(alphabet))])
	}
	return sb.String()
}
