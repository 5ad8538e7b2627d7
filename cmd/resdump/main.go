// Package main is the resource inspector: list the catalog, extract a
// resource, export bitmaps as BMP and sounds as WAV.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"golang.org/x/image/bmp"

	"go.creack.net/anotherworld/disasm"
	"go.creack.net/anotherworld/op"
	"go.creack.net/anotherworld/resource"
	"go.creack.net/anotherworld/video"
)

func main() {
	list := flag.Bool("list", false, "list the resource catalog")
	extract := flag.Int("extract", -1, "resource id to extract")
	all := flag.Bool("all", false, "extract every resource")
	out := flag.String("out", ".", "output directory")
	rate := flag.Int("rate", 11025, "sample rate stamped on exported sounds")
	flag.Parse()

	dir := flag.Arg(0)
	if dir == "" {
		dir = "."
	}
	repo := resource.NewDirRepository(dir)
	defer repo.Close()

	catalog, err := repo.Descriptors()
	if err != nil {
		log.Fatalf("Failed to read the catalog: %s.", err)
	}

	switch {
	case *list:
		for _, desc := range catalog {
			fmt.Println(desc)
		}
	case *all:
		for _, desc := range catalog {
			if desc.Size == 0 {
				continue
			}
			if err := extractOne(repo, desc, *out, *rate); err != nil {
				log.Printf("Resource 0x%02X: %s.", desc.ID, err)
			}
		}
	case *extract >= 0:
		if *extract >= len(catalog) {
			log.Fatalf("Resource 0x%02X out of range, the catalog has %d entries.", *extract, len(catalog))
		}
		if err := extractOne(repo, catalog[*extract], *out, *rate); err != nil {
			log.Fatalf("Resource 0x%02X: %s.", *extract, err)
		}
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func extractOne(repo resource.Repository, desc resource.Descriptor, out string, rate int) error {
	buf := make([]byte, desc.Size)
	data, err := repo.Read(desc, buf)
	if err != nil {
		return err
	}

	name := filepath.Join(out, fmt.Sprintf("res-%02x", desc.ID))
	switch desc.Kind {
	case op.KindBitmap:
		return writeBitmap(name+".bmp", data)
	case op.KindSound:
		return writeSound(name+".wav", data, rate)
	case op.KindBytecode:
		f, err := os.Create(name + ".txt")
		if err != nil {
			return err
		}
		defer f.Close()
		return disasm.Fprint(f, data)
	default:
		return os.WriteFile(name+".bin", data, 0o644)
	}
}

// writeBitmap expands the planar bitmap through the video model and
// saves it as a grayscale BMP: there is no palette to apply without
// running the part that uses it.
func writeBitmap(name string, data []byte) error {
	v := video.New()
	if err := v.DrawBitmap(data); err != nil {
		return err
	}
	img := image.NewGray(image.Rect(0, 0, op.ScreenWidth, op.ScreenHeight))
	for i, c := range v.Page(0) {
		img.Pix[i] = c * 0x11
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return bmp.Encode(f, img)
}

// writeSound strips the 8-byte sample header and writes the signed
// 8-bit PCM as a mono WAV.
func writeSound(name string, data []byte, rate int) error {
	if len(data) < 8 {
		return fmt.Errorf("%d byte sound resource", len(data))
	}
	length := int(op.Endian.Uint16(data)) * 2
	pcm := data[8:]
	if length < len(pcm) {
		pcm = pcm[:length]
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 8, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: 8,
		Data:           make([]int, len(pcm)),
	}
	for i, s := range pcm {
		buf.Data[i] = int(int8(s)) + 128 // 8-bit WAV is unsigned.
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
