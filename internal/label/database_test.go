package label

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/label-dates/internal/dates"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newExtraction := func(id string, createdAt time.Time) *Extraction {
		return &Extraction{
			ID:          id,
			Filename:    "label.jpg",
			File:        id + "_label.jpg",
			ContentType: "image/jpeg",
			Scanner:     "tesseract",
			Text:        "EXP 2024/01/10",
			Dates:       dates.Roles{"EXP": "2024-01-10"},
			Status:      true,
			CreatedAt:   createdAt,
		}
	}

	Describe("SaveExtraction", func() {
		var (
			extraction *Extraction
			err        error
		)

		BeforeEach(func() {
			extraction = newExtraction("test-id", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
		})

		JustBeforeEach(func() {
			err = db.SaveExtraction(extraction)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should round-trip through GetExtraction", func() {
				retrieved, getErr := db.GetExtraction("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(retrieved.Dates).To(Equal(dates.Roles{"EXP": "2024-01-10"}))
				Expect(retrieved.File).To(Equal("test-id_label.jpg"))
				Expect(retrieved.CreatedAt.Equal(extraction.CreatedAt)).To(BeTrue())
			})
		})

		When("the extraction has no ID", func() {
			BeforeEach(func() {
				extraction.ID = ""
			})

			It("should return an error", func() {
				Expect(err).To(MatchError(ContainSubstring("missing id")))
			})
		})

		When("saving the same ID twice", func() {
			It("should replace the record", func() {
				extraction.Status = false
				extraction.Dates = dates.Roles{}
				Expect(db.SaveExtraction(extraction)).To(Succeed())

				retrieved, getErr := db.GetExtraction("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(retrieved.Status).To(BeFalse())
			})
		})
	})

	Describe("GetExtraction", func() {
		It("should return ErrNotFound for unknown IDs", func() {
			_, err := db.GetExtraction("nonexistent")
			Expect(err).To(MatchError(ErrNotFound))
			Expect(err).To(MatchError(ContainSubstring("nonexistent")))
		})
	})

	Describe("ListExtractions", func() {
		When("the database is empty", func() {
			It("should return an empty, non-nil slice", func() {
				extractions, err := db.ListExtractions()
				Expect(err).NotTo(HaveOccurred())
				Expect(extractions).NotTo(BeNil())
				Expect(extractions).To(BeEmpty())
			})
		})

		When("extractions exist", func() {
			BeforeEach(func() {
				now := time.Now()
				Expect(db.SaveExtraction(newExtraction("a", now))).To(Succeed())
				Expect(db.SaveExtraction(newExtraction("b", now))).To(Succeed())
			})

			It("should return all of them", func() {
				extractions, err := db.ListExtractions()
				Expect(err).NotTo(HaveOccurred())
				Expect(extractions).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteExtraction", func() {
		BeforeEach(func() {
			Expect(db.SaveExtraction(newExtraction("test-id", time.Now()))).To(Succeed())
		})

		It("should remove the record", func() {
			Expect(db.DeleteExtraction("test-id")).To(Succeed())
			_, err := db.GetExtraction("test-id")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("should ignore unknown IDs", func() {
			Expect(db.DeleteExtraction("nonexistent")).To(Succeed())
		})
	})

	Describe("persistence", func() {
		It("should keep records across reopen", func() {
			Expect(db.SaveExtraction(newExtraction("kept", time.Now()))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())

			retrieved, err := db.GetExtraction("kept")
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ID).To(Equal("kept"))
		})
	})

	Describe("NewBoltDB", func() {
		It("should fail for a path in a missing directory", func() {
			_, err := NewBoltDB(filepath.Join(tmpDir, "missing", "test.db"))
			Expect(err).To(MatchError(ContainSubstring("opening boltdb")))
		})
	})
})
