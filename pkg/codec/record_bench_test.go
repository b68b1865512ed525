//go:build bench
// +build bench

package codec

import (
	"fmt"
	"testing"
)

func benchRecord(n int) *Record {
	rec := &Record{Fields: []Field{{Tag: "001", Value: "990000001"}}}
	for i := 0; i < n; i++ {
		rec.Fields = append(rec.Fields, Field{
			Tag:        "650",
			Indicators: " 0",
			Subfields: []Subfield{
				{Code: "a", Value: fmt.Sprintf("Subject %d", i)},
				{Code: "x", Value: "History"},
			},
		})
	}
	return rec
}

func BenchmarkRecordCodec_Encode(b *testing.B) {
	codec := NewRecordCodec()

	benchmarks := []struct {
		name   string
		fields int
	}{
		{"small", 2},
		{"medium", 20},
		{"large", 200},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			rec := benchRecord(bm.fields)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := codec.Encode(rec); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecordCodec_Decode(b *testing.B) {
	codec := NewRecordCodec()
	encoded, err := codec.Encode(benchRecord(50))
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := codec.Decode(encoded); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecordCodec_EncodeParallel(b *testing.B) {
	codec := NewRecordCodec()
	rec := benchRecord(20)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := codec.Encode(rec); err != nil {
				b.Fatal(err)
			}
		}
	})
}
