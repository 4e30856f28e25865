package production_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/produccion-api/internal/domain/production"
)

func TestNextBatchNo_Consecutivo(t *testing.T) {
	assert.Equal(t, "BP-0001", production.NextBatchNo("BP-", 4, 0))
	assert.Equal(t, "BP-0002", production.NextBatchNo("BP-", 4, 1))
	assert.Equal(t, "BP-10000", production.NextBatchNo("BP-", 4, 9999), "no se trunca al superar el ancho")
}

func TestBatchNoSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"BP-0007", 7, true},
		{"BP-12", 12, true},
		{"BP-", 0, false},
		{"BP-00A1", 0, false},
		{"SO-0001", 0, false},
		{"manual", 0, false},
	}
	for _, c := range cases {
		n, ok := production.BatchNoSuffix("BP-", c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, n, c.in)
	}
}
