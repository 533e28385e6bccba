// Package metadatatest builds small EXIF-tagged images for tests.
package metadatatest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
)

const (
	tagOrientation      = 0x0112
	tagExifIFDPointer   = 0x8769
	tagGPSIFDPointer    = 0x8825
	tagDateTimeOriginal = 0x9003
	tagGPSLatitudeRef   = 0x0001
	tagGPSLatitude      = 0x0002
	tagGPSLongitudeRef  = 0x0003
	tagGPSLongitude     = 0x0004

	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

// Rational is an unsigned EXIF rational.
type Rational struct {
	Num, Den uint32
}

// R is shorthand for Rational{num, den}.
func R(num, den uint32) Rational {
	return Rational{Num: num, Den: den}
}

// Image describes the EXIF content to encode. Empty strings and nil slices
// leave the tag out; ExifIFD and GPSIFD control whether the sub-IFDs exist.
type Image struct {
	Orientation int

	ExifIFD          bool
	DateTimeOriginal string

	GPSIFD       bool
	LatitudeRef  string
	Latitude     []Rational
	LongitudeRef string
	Longitude    []Rational
}

// Tagged returns an image with both groups fully populated.
func Tagged(dateTime string, lat []Rational, latRef string, lon []Rational, lonRef string) Image {
	return Image{
		ExifIFD:          true,
		DateTimeOriginal: dateTime,
		GPSIFD:           true,
		Latitude:         lat,
		LatitudeRef:      latRef,
		Longitude:        lon,
		LongitudeRef:     lonRef,
	}
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

var order = binary.LittleEndian

// TIFF encodes the EXIF block as a bare little-endian TIFF stream.
func (img Image) TIFF() []byte {
	orientation := img.Orientation
	if orientation == 0 {
		orientation = 1
	}
	ifd0 := []entry{shortEntry(tagOrientation, uint16(orientation))}

	var exifIFD, gpsIFD []entry
	if img.ExifIFD {
		ifd0 = append(ifd0, longEntry(tagExifIFDPointer, 0))
		if img.DateTimeOriginal != "" {
			exifIFD = append(exifIFD, asciiEntry(tagDateTimeOriginal, img.DateTimeOriginal))
		}
	}
	if img.GPSIFD {
		ifd0 = append(ifd0, longEntry(tagGPSIFDPointer, 0))
		if img.LatitudeRef != "" {
			gpsIFD = append(gpsIFD, asciiEntry(tagGPSLatitudeRef, img.LatitudeRef))
		}
		if img.Latitude != nil {
			gpsIFD = append(gpsIFD, rationalEntry(tagGPSLatitude, img.Latitude))
		}
		if img.LongitudeRef != "" {
			gpsIFD = append(gpsIFD, asciiEntry(tagGPSLongitudeRef, img.LongitudeRef))
		}
		if img.Longitude != nil {
			gpsIFD = append(gpsIFD, rationalEntry(tagGPSLongitude, img.Longitude))
		}
	}

	offset := uint32(8) + ifdSize(ifd0)
	if img.ExifIFD {
		setLong(ifd0, tagExifIFDPointer, offset)
		offset += ifdSize(exifIFD)
	}
	if img.GPSIFD {
		setLong(ifd0, tagGPSIFDPointer, offset)
		offset += ifdSize(gpsIFD)
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, order, uint16(42))
	binary.Write(&buf, order, uint32(8))

	var data []byte
	writeIFD(&buf, ifd0, &data, offset)
	if img.ExifIFD {
		writeIFD(&buf, exifIFD, &data, offset)
	}
	if img.GPSIFD {
		writeIFD(&buf, gpsIFD, &data, offset)
	}
	buf.Write(data)
	return buf.Bytes()
}

// JPEG encodes a small solid image and splices the EXIF block in as an
// APP1 segment right after SOI.
func (img Image) JPEG() []byte {
	return img.JPEGSized(16, 8)
}

// JPEGSized is JPEG with explicit pixel dimensions.
func (img Image) JPEGSized(width, height int) []byte {
	pixels := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixels.Set(x, y, color.RGBA{R: uint8(x * 16), G: 128, B: uint8(y * 16), A: 255})
		}
	}
	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, pixels, nil); err != nil {
		panic(err)
	}
	raw := encoded.Bytes()

	payload := append([]byte("Exif\x00\x00"), img.TIFF()...)

	var out bytes.Buffer
	out.Write(raw[:2])
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(raw[2:])
	return out.Bytes()
}

func ifdSize(entries []entry) uint32 {
	return 2 + 12*uint32(len(entries)) + 4
}

func writeIFD(buf *bytes.Buffer, entries []entry, data *[]byte, dataStart uint32) {
	binary.Write(buf, order, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(buf, order, e.tag)
		binary.Write(buf, order, e.typ)
		binary.Write(buf, order, e.count)
		if len(e.data) <= 4 {
			val := make([]byte, 4)
			copy(val, e.data)
			buf.Write(val)
			continue
		}
		binary.Write(buf, order, dataStart+uint32(len(*data)))
		*data = append(*data, e.data...)
		if len(*data)%2 == 1 {
			*data = append(*data, 0)
		}
	}
	binary.Write(buf, order, uint32(0))
}

func setLong(entries []entry, tag uint16, v uint32) {
	for i := range entries {
		if entries[i].tag == tag {
			order.PutUint32(entries[i].data, v)
		}
	}
}

func shortEntry(tag, v uint16) entry {
	data := make([]byte, 2)
	order.PutUint16(data, v)
	return entry{tag: tag, typ: typeShort, count: 1, data: data}
}

func longEntry(tag uint16, v uint32) entry {
	data := make([]byte, 4)
	order.PutUint32(data, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: data}
}

func asciiEntry(tag uint16, s string) entry {
	data := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(data)), data: data}
}

func rationalEntry(tag uint16, vals []Rational) entry {
	data := make([]byte, 8*len(vals))
	for i, v := range vals {
		order.PutUint32(data[8*i:], v.Num)
		order.PutUint32(data[8*i+4:], v.Den)
	}
	return entry{tag: tag, typ: typeRational, count: uint32(len(vals)), data: data}
}
