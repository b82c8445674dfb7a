package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		img.Set(x, x, color.Black)
	}
	return img
}

func encodePNG() []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, testImage())).To(Succeed())
	return buf.Bytes()
}

func encodeJPEG() []byte {
	var buf bytes.Buffer
	Expect(jpeg.Encode(&buf, testImage(), nil)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("PrepareImage", func() {
	var (
		data        []byte
		contentType string
		out         []byte
		converted   bool
		err         error
	)

	JustBeforeEach(func() {
		out, converted, err = PrepareImage(data, contentType)
	})

	When("the upload is a PNG", func() {
		BeforeEach(func() {
			data = encodePNG()
			contentType = "image/png"
		})

		It("should return the bytes unchanged", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeFalse())
			Expect(out).To(Equal(data))
		})
	})

	When("the upload is a JPEG", func() {
		BeforeEach(func() {
			data = encodeJPEG()
			contentType = "image/jpeg"
		})

		It("should convert it to PNG", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeTrue())
			_, format, decodeErr := image.Decode(bytes.NewReader(out))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(format).To(Equal("png"))
		})
	})

	When("the declared type does not match the bytes", func() {
		BeforeEach(func() {
			data = encodeJPEG()
			contentType = "image/png"
		})

		It("should still produce a PNG", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeTrue())
			Expect(bytes.HasPrefix(out, pngSignature)).To(BeTrue())
		})
	})

	When("the content type has parameters", func() {
		BeforeEach(func() {
			data = encodePNG()
			contentType = "Image/PNG; charset=binary"
		})

		It("should accept it", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("the content type is not an image", func() {
		BeforeEach(func() {
			data = encodePNG()
			contentType = "application/pdf"
		})

		It("returns ErrNotImage", func() {
			Expect(err).To(MatchError(ErrNotImage))
		})
	})

	When("the content type is empty", func() {
		BeforeEach(func() {
			data = encodePNG()
			contentType = ""
		})

		It("returns ErrNotImage", func() {
			Expect(err).To(MatchError(ErrNotImage))
		})
	})

	When("the file is empty", func() {
		BeforeEach(func() {
			data = nil
			contentType = "image/jpeg"
		})

		It("returns ErrUndecodable", func() {
			Expect(err).To(MatchError(ErrUndecodable))
		})
	})

	When("a HEIC upload is corrupt", func() {
		BeforeEach(func() {
			data = []byte("\x00\x00\x00\x18ftypheic garbage")
			contentType = "image/heic"
		})

		It("returns ErrUndecodable", func() {
			Expect(err).To(MatchError(ErrUndecodable))
		})
	})

	When("a PDF is uploaded under an image type", func() {
		BeforeEach(func() {
			data = []byte("%PDF-1.4\n1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n" +
				"2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n" +
				"3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 10 10] >> endobj\n" +
				"trailer << /Root 1 0 R >>\n%%EOF\n")
			contentType = "image/png"
		})

		It("returns ErrUndecodable", func() {
			Expect(err).To(MatchError(ErrUndecodable))
			Expect(out).To(BeNil())
		})
	})

	When("an SVG is uploaded", func() {
		BeforeEach(func() {
			data = []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">` +
				`<script>alert(1)</script><rect width="10" height="10"/></svg>`)
			contentType = "image/svg+xml"
		})

		It("returns ErrUndecodable", func() {
			Expect(err).To(MatchError(ErrUndecodable))
			Expect(out).To(BeNil())
		})
	})

	When("an XML prolog precedes the SVG", func() {
		BeforeEach(func() {
			data = []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`)
			contentType = "image/jpeg"
		})

		It("returns ErrUndecodable", func() {
			Expect(err).To(MatchError(ErrUndecodable))
		})
	})

	When("a JPEG upload is truncated", func() {
		BeforeEach(func() {
			full := encodeJPEG()
			data = full[:len(full)/2]
			contentType = "image/jpeg"
		})

		It("returns ErrUndecodable", func() {
			Expect(err).To(MatchError(ErrUndecodable))
		})
	})
})

var _ = Describe("IsImageContentType", func() {
	It("accepts image types", func() {
		Expect(IsImageContentType("image/jpeg")).To(BeTrue())
		Expect(IsImageContentType(" IMAGE/WEBP ")).To(BeTrue())
	})

	It("rejects everything else", func() {
		Expect(IsImageContentType("application/octet-stream")).To(BeFalse())
		Expect(IsImageContentType("text/plain")).To(BeFalse())
		Expect(IsImageContentType("")).To(BeFalse())
	})
})

var _ = Describe("isHEICFormat", func() {
	It("detects the ftyp brand", func() {
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypheic\x00\x00"))).To(BeTrue())
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypmif1\x00\x00"))).To(BeTrue())
	})

	It("ignores short and unrelated data", func() {
		Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
		Expect(isHEICFormat(encodePNG())).To(BeFalse())
	})
})

var _ = Describe("fitzRasterFormat", func() {
	DescribeTable("raster magic",
		func(data string, format string) {
			got, ok := fitzRasterFormat([]byte(data))
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(format))
		},
		Entry("JP2 container", "\x00\x00\x00\x0cjP  \r\n\x87\n\x00\x00", "jp2"),
		Entry("J2K codestream", "\xff\x4f\xff\x51\x00", "jp2"),
		Entry("Photoshop", "8BPS\x00\x01", "psd"),
		Entry("binary PGM", "P5\n4 4\n255\n", "pnm"),
	)

	DescribeTable("documents",
		func(data string) {
			_, ok := fitzRasterFormat([]byte(data))
			Expect(ok).To(BeFalse())
		},
		Entry("PDF", "%PDF-1.7\n"),
		Entry("SVG", "<svg xmlns=\"http://www.w3.org/2000/svg\"/>"),
		Entry("XML", "<?xml version=\"1.0\"?>"),
		Entry("EPUB or XPS zip", "PK\x03\x04\x14\x00"),
		Entry("P followed by text", "Pickles"),
	)
})

var _ = Describe("DetectImageType", func() {
	It("reports the decoded format rather than a declared one", func() {
		Expect(DetectImageType(encodePNG())).To(Equal("image/png"))
		Expect(DetectImageType(encodeJPEG())).To(Equal("image/jpeg"))
	})

	It("recognizes HEIC by its brand", func() {
		Expect(DetectImageType([]byte("\x00\x00\x00\x18ftypheic\x00\x00"))).To(Equal("image/heic"))
	})

	It("returns empty for documents", func() {
		Expect(DetectImageType([]byte("%PDF-1.4\n"))).To(BeEmpty())
		Expect(DetectImageType([]byte("<svg/>"))).To(BeEmpty())
	})
})

var _ = Describe("IsRasterContentType", func() {
	It("accepts decoded raster types", func() {
		Expect(IsRasterContentType("image/png")).To(BeTrue())
		Expect(IsRasterContentType("IMAGE/JPEG; q=1")).To(BeTrue())
	})

	It("rejects scriptable and unknown types", func() {
		Expect(IsRasterContentType("image/svg+xml")).To(BeFalse())
		Expect(IsRasterContentType("text/html")).To(BeFalse())
		Expect(IsRasterContentType("")).To(BeFalse())
	})
})
