package ops

func CompareValuesAreBigger[T NumericTypes](arr []T, cmp T, out []uint64) {
	n := len(arr)
	i := 0

	for ; i+7 < n; i += 8 {
		a0, a1 := arr[i], arr[i+1]
		a2, a3 := arr[i+2], arr[i+3]
		a4, a5 := arr[i+4], arr[i+5]
		a6, a7 := arr[i+6], arr[i+7]

		m := b2u(a0 > cmp) |
			b2u(a1 > cmp)<<1 |
			b2u(a2 > cmp)<<2 |
			b2u(a3 > cmp)<<3 |
			b2u(a4 > cmp)<<4 |
			b2u(a5 > cmp)<<5 |
			b2u(a6 > cmp)<<6 |
			b2u(a7 > cmp)<<7

		out[i>>6] |= m << (i & 63)
	}

	// Tail element
	for ; i < n; i++ {
		if arr[i] > cmp {
			out[i>>6] |= 1 << (i & 63)
		}
	}
}

func CompareValuesAreBiggerOrEqual[T NumericTypes](arr []T, cmp T, out []uint64) {
	n := len(arr)
	i := 0

	for ; i+7 < n; i += 8 {
		a0, a1 := arr[i], arr[i+1]
		a2, a3 := arr[i+2], arr[i+3]
		a4, a5 := arr[i+4], arr[i+5]
		a6, a7 := arr[i+6], arr[i+7]

		m := b2u(a0 >= cmp) |
			b2u(a1 >= cmp)<<1 |
			b2u(a2 >= cmp)<<2 |
			b2u(a3 >= cmp)<<3 |
			b2u(a4 >= cmp)<<4 |
			b2u(a5 >= cmp)<<5 |
			b2u(a6 >= cmp)<<6 |
			b2u(a7 >= cmp)<<7

		out[i>>6] |= m << (i & 63)
	}

	// Tail element
	for ; i < n; i++ {
		if arr[i] >= cmp {
			out[i>>6] |= 1 << (i & 63)
		}
	}
}
