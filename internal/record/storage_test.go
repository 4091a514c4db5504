package record

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		storage  *LocalStorage
		basePath string
		err      error
	)

	BeforeEach(func() {
		basePath = filepath.Join(GinkgoT().TempDir(), "rawtext")
		storage, err = NewLocalStorage(basePath)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewLocalStorage", func() {
		It("creates the base directory", func() {
			info, statErr := os.Stat(basePath)
			Expect(statErr).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})
	})

	Describe("Save", func() {
		It("writes the artifact and returns its name", func() {
			path, saveErr := storage.Save("doc-1_invoice.jpg.txt", []byte("raw text"))
			Expect(saveErr).NotTo(HaveOccurred())
			Expect(path).To(Equal("doc-1_invoice.jpg.txt"))

			data, readErr := os.ReadFile(filepath.Join(basePath, path))
			Expect(readErr).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("raw text"))
		})
	})

	Describe("Get", func() {
		When("the artifact exists", func() {
			BeforeEach(func() {
				_, saveErr := storage.Save("doc-1.txt", []byte("stored"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("returns its contents", func() {
				data, getErr := storage.Get("doc-1.txt")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("stored"))
			})
		})

		When("the artifact does not exist", func() {
			It("returns an error", func() {
				_, getErr := storage.Get("missing.txt")
				Expect(getErr).To(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		When("the artifact exists", func() {
			BeforeEach(func() {
				_, saveErr := storage.Save("doc-1.txt", []byte("stored"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("removes it", func() {
				Expect(storage.Delete("doc-1.txt")).To(Succeed())
				_, statErr := os.Stat(filepath.Join(basePath, "doc-1.txt"))
				Expect(os.IsNotExist(statErr)).To(BeTrue())
			})
		})

		When("the artifact does not exist", func() {
			It("returns an error", func() {
				Expect(storage.Delete("missing.txt")).To(HaveOccurred())
			})
		})
	})
})
