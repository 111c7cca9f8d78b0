package poverty

import "fmt"

const (
	// MinBinomialN is the smallest n accepted by BinomialChooseTwo
	MinBinomialN = 2
	// MaxBinomialN is the largest n accepted by BinomialChooseTwo, and so the widest panel
	MaxBinomialN = 60
)

// chooseTwo[n] = n*(n-1)/2
var chooseTwo = [MaxBinomialN + 1]int{
	0,
	0, 1, 3, 6, 10, 15, 21, 28, 36, 45,
	55, 66, 78, 91, 105, 120, 136, 153, 171, 190,
	210, 231, 253, 276, 300, 325, 351, 378, 406, 435,
	465, 496, 528, 561, 595, 630, 666, 703, 741, 780,
	820, 861, 903, 946, 990, 1035, 1081, 1128, 1176, 1225,
	1275, 1326, 1378, 1431, 1485, 1540, 1596, 1653, 1711, 1770,
}

// BinomialChooseTwo returns the number of unordered pairs that can be drawn from n items
func BinomialChooseTwo(n int) (int, error) {
	if n < MinBinomialN {
		return 0, fmt.Errorf("%w: n must be greater than %d, got %d", ErrOutOfRange, MinBinomialN-1, n)
	}
	if n > MaxBinomialN {
		return 0, fmt.Errorf("%w: n must be less than %d, got %d", ErrOutOfRange, MaxBinomialN+1, n)
	}
	return chooseTwo[n], nil
}
