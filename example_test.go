package sparserow_test

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hupe1980/sparserow"
	"github.com/hupe1980/sparserow/snapshot"
)

func Example() {
	ctx := context.Background()

	rt, err := sparserow.NewRuntime(sparserow.WithPartitions(8))
	if err != nil {
		panic(err)
	}
	defer rt.Close()

	m, err := rt.NewMatrix(ctx, 16)
	if err != nil {
		panic(err)
	}
	defer m.Close()

	even := []sparserow.Entry{{Col: 0, Val: 1}, {Col: 3, Val: 1}, {Col: 5, Val: 1}, {Col: 7, Val: 1}, {Col: 12, Val: 1}, {Col: 14, Val: 1}, {Col: 27, Val: 1}, {Col: 31, Val: 1}}
	odd := []sparserow.Entry{{Col: 1, Val: 1}, {Col: 7, Val: 1}, {Col: 10, Val: 1}, {Col: 14, Val: 1}, {Col: 18, Val: 1}, {Col: 27, Val: 1}, {Col: 28, Val: 1}}

	_ = m.Append(ctx, 2, even)
	_ = m.Append(ctx, 13, odd)

	v, err := rt.Dot(ctx, m, 2, m, 13)
	if err != nil {
		panic(err)
	}

	p, _ := m.RowHint(13).Partition()
	fmt.Println("row 13 lives on partition", p)
	fmt.Println("dot:", v)

	// Output:
	// row 13 lives on partition 5
	// dot: 3
}

func ExampleMatrix_Build() {
	ctx := context.Background()

	rt, _ := sparserow.NewRuntime(sparserow.WithPartitions(4), sparserow.WithValidation(true))
	defer rt.Close()

	m, _ := rt.NewMatrix(ctx, 10)
	defer m.Close()

	err := m.Build(ctx, map[int][]sparserow.Entry{
		1: {{Col: 2, Val: 3}, {Col: 9, Val: -2}},
		6: {{Col: 2, Val: 4}, {Col: 9, Val: 5}},
	})
	if err != nil {
		panic(err)
	}

	v, _ := rt.Dot(ctx, m, 1, m, 6)
	fmt.Println(m.Written().ToArray(), v)

	// Output:
	// [1 6] 2
}

func ExampleRuntime_LoadMatrix() {
	ctx := context.Background()

	src, _ := sparserow.NewRuntime(sparserow.WithPartitions(8))
	defer src.Close()

	m, _ := src.NewMatrix(ctx, 4)
	defer m.Close()
	_ = m.Append(ctx, 3, []sparserow.Entry{{Col: 1, Val: 2}, {Col: 4, Val: 3}})

	var buf bytes.Buffer
	if _, err := m.WriteSnapshot(ctx, &buf, snapshot.CompressionZstd); err != nil {
		panic(err)
	}

	dst, _ := sparserow.NewRuntime(sparserow.WithPartitions(2))
	defer dst.Close()

	loaded, err := dst.LoadMatrix(ctx, &buf)
	if err != nil {
		panic(err)
	}
	defer loaded.Close()

	v, _ := dst.Dot(ctx, loaded, 3, loaded, 3)
	fmt.Println(loaded.Rows(), loaded.Partitions(), v)

	// Output:
	// 4 2 13
}
