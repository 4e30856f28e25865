package production

import (
	"fmt"
	"strconv"
	"strings"
)

// Valores por defecto del consecutivo de lotes.
const (
	DefaultBatchNoPrefix = "BP-"
	DefaultBatchNoWidth  = 4
)

// BatchNoSuffix extrae el sufijo entero de un número de lote con el prefijo dado.
// ok=false si no empieza por el prefijo o el sufijo no es numérico.
func BatchNoSuffix(prefix, batchNo string) (int, bool) {
	if !strings.HasPrefix(batchNo, prefix) {
		return 0, false
	}
	rest := batchNo[len(prefix):]
	if rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatBatchNo arma prefix + n con ceros a la izquierda hasta width dígitos.
func FormatBatchNo(prefix string, n, width int) string {
	if width <= 0 {
		width = DefaultBatchNoWidth
	}
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// NextBatchNo calcula el siguiente consecutivo a partir del máximo sufijo existente.
func NextBatchNo(prefix string, width, maxSuffix int) string {
	if maxSuffix < 0 {
		maxSuffix = 0
	}
	return FormatBatchNo(prefix, maxSuffix+1, width)
}
