// Package palette reduces canvases to the small indexed palettes that GIF
// frames and paletted PNG snapshots need.
//
// Index 0 of every palette produced here is fully transparent. Every
// visible color is mapped to indices 1..n-1, so pixel-identical inputs
// always produce identical paletted images.
package palette

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
)

const (
	// TransparentIndex is the palette slot reserved for fully transparent pixels
	TransparentIndex = 0

	// DefaultColors is the palette size used for snapshots, transparent slot included
	DefaultColors = 64
)

var transparent = color.NRGBA{}

// MedianCut is a deterministic median-cut draw.Quantizer.
// The zero value quantizes to DefaultColors entries.
type MedianCut struct {
	MaxColors int
}

var _ draw.Quantizer = MedianCut{}

// Quantize appends colors for m to p. When p has spare capacity it bounds the
// palette size, otherwise MaxColors does. A transparent entry is added first
// if p is empty.
func (q MedianCut) Quantize(p color.Palette, m image.Image) color.Palette {
	limit := cap(p)
	if limit <= len(p) {
		limit = q.MaxColors
		if limit <= 0 {
			limit = DefaultColors
		}
	}
	if limit > 256 {
		limit = 256
	}
	if len(p) == 0 {
		p = append(p, transparent)
	}
	room := limit - len(p)
	if room <= 0 {
		return p
	}
	for _, c := range buildColors(histogram(m), room) {
		p = append(p, c)
	}
	return p
}

// Quantize converts img to a paletted image with at most maxColors entries.
// Fully transparent pixels map to TransparentIndex. Images with fewer than
// maxColors distinct visible colors are reproduced exactly.
func Quantize(img image.Image, maxColors int) *image.Paletted {
	if maxColors < 2 {
		maxColors = DefaultColors
	}
	if maxColors > 256 {
		maxColors = 256
	}
	pal := MedianCut{MaxColors: maxColors}.Quantize(make(color.Palette, 0, maxColors), img)

	b := img.Bounds()
	out := image.NewPaletted(b, pal)
	m := newMapper(pal)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := out.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Pix[row+x-b.Min.X] = m.index(c)
		}
	}
	return out
}

// entry is one distinct visible color and its pixel count
type entry struct {
	c     [4]uint8
	key   uint32
	count int
}

func pack(c color.NRGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

// histogram counts visible colors, sorted by packed value
func histogram(m image.Image) []entry {
	counts := make(map[uint32]int)
	b := m.Bounds()
	if nrgba, ok := m.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := nrgba.PixOffset(b.Min.X, y)
			for x := 0; x < b.Dx(); x++ {
				px := nrgba.Pix[i+x*4 : i+x*4+4]
				if px[3] == 0 {
					continue
				}
				counts[uint32(px[0])<<24|uint32(px[1])<<16|uint32(px[2])<<8|uint32(px[3])]++
			}
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
				if c.A == 0 {
					continue
				}
				counts[pack(c)]++
			}
		}
	}

	entries := make([]entry, 0, len(counts))
	for key, n := range counts {
		entries = append(entries, entry{
			c:     [4]uint8{uint8(key >> 24), uint8(key >> 16), uint8(key >> 8), uint8(key)},
			key:   key,
			count: n,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	return entries
}

// buildColors returns at most n colors representing entries
func buildColors(entries []entry, n int) []color.NRGBA {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) <= n {
		out := make([]color.NRGBA, len(entries))
		for i, e := range entries {
			out[i] = color.NRGBA{R: e.c[0], G: e.c[1], B: e.c[2], A: e.c[3]}
		}
		return out
	}

	boxes := []box{newBox(entries)}
	for len(boxes) < n {
		idx, ch := -1, 0
		widest := 0
		for i, bx := range boxes {
			if len(bx.entries) < 2 {
				continue
			}
			c, width := bx.widestChannel()
			if width > widest {
				idx, ch, widest = i, c, width
			}
		}
		if idx < 0 {
			break
		}
		lo, hi := boxes[idx].split(ch)
		boxes[idx] = lo
		boxes = append(boxes, hi)
	}

	out := make([]color.NRGBA, len(boxes))
	for i, bx := range boxes {
		out[i] = bx.average()
	}
	return out
}

type box struct {
	entries []entry
	min     [4]uint8
	max     [4]uint8
}

func newBox(entries []entry) box {
	bx := box{entries: entries, min: [4]uint8{255, 255, 255, 255}}
	for _, e := range entries {
		for ch := 0; ch < 4; ch++ {
			if e.c[ch] < bx.min[ch] {
				bx.min[ch] = e.c[ch]
			}
			if e.c[ch] > bx.max[ch] {
				bx.max[ch] = e.c[ch]
			}
		}
	}
	return bx
}

// widestChannel returns the channel with the largest range, lowest channel first on ties
func (bx box) widestChannel() (int, int) {
	best, width := 0, -1
	for ch := 0; ch < 4; ch++ {
		if w := int(bx.max[ch]) - int(bx.min[ch]); w > width {
			best, width = ch, w
		}
	}
	return best, width
}

// split divides the box at the weighted median along ch. Both halves are non-empty.
func (bx box) split(ch int) (box, box) {
	sorted := make([]entry, len(bx.entries))
	copy(sorted, bx.entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].c[ch] != sorted[j].c[ch] {
			return sorted[i].c[ch] < sorted[j].c[ch]
		}
		return sorted[i].key < sorted[j].key
	})

	total := 0
	for _, e := range sorted {
		total += e.count
	}
	k, acc := 1, 0
	for i, e := range sorted[:len(sorted)-1] {
		acc += e.count
		k = i + 1
		if acc*2 >= total {
			break
		}
	}
	return newBox(sorted[:k]), newBox(sorted[k:])
}

// average is the count-weighted mean color of the box, rounded to nearest
func (bx box) average() color.NRGBA {
	var sum [4]int
	total := 0
	for _, e := range bx.entries {
		for ch := 0; ch < 4; ch++ {
			sum[ch] += int(e.c[ch]) * e.count
		}
		total += e.count
	}
	var avg [4]uint8
	for ch := 0; ch < 4; ch++ {
		avg[ch] = uint8((sum[ch] + total/2) / total)
	}
	return color.NRGBA{R: avg[0], G: avg[1], B: avg[2], A: avg[3]}
}

// mapper assigns palette indices: exact matches first, then nearest visible
// entry with ties going to the lowest index.
type mapper struct {
	palette []color.NRGBA
	cache   map[uint32]uint8
}

func newMapper(p color.Palette) *mapper {
	m := &mapper{palette: make([]color.NRGBA, len(p)), cache: make(map[uint32]uint8)}
	for i, c := range p {
		m.palette[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
	return m
}

func (m *mapper) index(c color.NRGBA) uint8 {
	if c.A == 0 {
		return TransparentIndex
	}
	key := pack(c)
	if idx, ok := m.cache[key]; ok {
		return idx
	}

	best, bestDist := -1, -1
	for i, p := range m.palette {
		if p.A == 0 {
			continue
		}
		dr := int(c.R) - int(p.R)
		dg := int(c.G) - int(p.G)
		db := int(c.B) - int(p.B)
		da := int(c.A) - int(p.A)
		d := dr*dr + dg*dg + db*db + da*da
		if best < 0 || d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	if best < 0 {
		best = TransparentIndex
	}
	m.cache[key] = uint8(best)
	return uint8(best)
}
