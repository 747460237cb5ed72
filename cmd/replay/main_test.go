package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmm-go/sim"
	"pmm-go/strategy"
)

func TestParsePrices(t *testing.T) {
	in := "ts,price\n1,100.5\n2, 101\nbad,line\n3,0\n"
	prices, err := parsePrices(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, prices, 3)
	assert.Equal(t, "100.5", prices[0].String())
	assert.Equal(t, "101", prices[1].String())
	// 非正价格保留，由报价引擎拒绝
	assert.True(t, prices[2].IsZero())
}

func TestWriteProposals(t *testing.T) {
	r, err := sim.NewReplay(strategy.DefaultConfig(), nil)
	require.NoError(t, err)
	proposals := r.Run([]decimal.Decimal{decimal.NewFromInt(100), decimal.Zero})

	var buf bytes.Buffer
	require.NoError(t, writeProposals(&buf, proposals))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "cycle,ref,outcome"))
	assert.Contains(t, lines[1], ",quoted,")
	assert.Contains(t, lines[2], string(strategy.ReasonInvalidReferencePrice))
}
