package record

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Server", func() {
	var (
		db         *mockDB
		storage    *mockStorage
		primary    *mockSource
		secondary  *mockSource
		service    *Service
		server     *Server
		basicAuth  BasicAuth
		httpServer *ghttp.Server
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		primary = newMockSource()
		secondary = newMockSource()
		basicAuth = BasicAuth{}
		httpServer = ghttp.NewServer()
	})

	AfterEach(func() {
		httpServer.Close()
	})

	// setupServer builds the service and server, and routes every request on
	// the test HTTP server through them.
	setupServer := func() {
		idGen := &mockIDGenerator{id: "test-id-123"}
		timeSrc := &mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, primary, secondary, storage, idGen, timeSrc)
		server = NewServer(service, basicAuth)
		httpServer.AppendHandlers(server.ServeHTTP)
	}

	uploadRequest := func(filename string) *http.Request {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte("fake image data"))
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		req, err := http.NewRequest("POST", httpServer.URL()+"/api/documents", &body)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req
	}

	Describe("GET /", func() {
		BeforeEach(setupServer)

		It("serves the HTML interface", func() {
			resp, err := http.Get(httpServer.URL() + "/")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("Invoice Extract"))
		})
	})

	Describe("POST /api/documents", func() {
		BeforeEach(setupServer)

		It("processes the upload and returns the document", func() {
			resp, err := http.DefaultClient.Do(uploadRequest("invoice.jpg"))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var doc Document
			Expect(json.NewDecoder(resp.Body).Decode(&doc)).To(Succeed())
			Expect(doc.ID).To(Equal("test-id-123"))
			Expect(doc.Fields.Vendor).To(Equal("Coffee Corner"))
			Expect(doc.Fields.TotalAmount).To(Equal("45.5"))
			Expect(doc.Fields.Currency).To(Equal("GBP"))
			Expect(doc.Fields.Date).To(Equal("2023-03-14"))

			Expect(db.documents).To(HaveKey("test-id-123"))
		})

		When("primary inference fails", func() {
			BeforeEach(func() {
				primary.inferErr = io.ErrUnexpectedEOF
			})

			It("returns a JSON error", func() {
				resp, err := http.DefaultClient.Do(uploadRequest("invoice.jpg"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var payload map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&payload)).To(Succeed())
				Expect(payload).To(HaveKey("error"))
			})
		})

		When("no file is provided", func() {
			It("returns a bad request error", func() {
				var body bytes.Buffer
				writer := multipart.NewWriter(&body)
				Expect(writer.Close()).To(Succeed())

				req, err := http.NewRequest("POST", httpServer.URL()+"/api/documents", &body)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Content-Type", writer.FormDataContentType())

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("GET /api/documents", func() {
		When("documents exist", func() {
			BeforeEach(func() {
				db.documents["doc-1"] = &Document{ID: "doc-1"}
				db.documents["doc-2"] = &Document{ID: "doc-2"}
				setupServer()
			})

			It("returns them all", func() {
				resp, err := http.Get(httpServer.URL() + "/api/documents")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var docs []*Document
				Expect(json.NewDecoder(resp.Body).Decode(&docs)).To(Succeed())
				Expect(docs).To(HaveLen(2))
			})
		})

		When("no documents exist", func() {
			BeforeEach(setupServer)

			It("returns an empty array", func() {
				resp, err := http.Get(httpServer.URL() + "/api/documents")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(MatchJSON("[]"))
			})
		})
	})

	Describe("GET /api/documents/{id}", func() {
		BeforeEach(func() {
			db.documents["doc-1"] = &Document{ID: "doc-1"}
			setupServer()
		})

		It("returns the document", func() {
			resp, err := http.Get(httpServer.URL() + "/api/documents/doc-1")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var doc Document
			Expect(json.NewDecoder(resp.Body).Decode(&doc)).To(Succeed())
			Expect(doc.ID).To(Equal("doc-1"))
		})

		When("the document does not exist", func() {
			It("returns 404", func() {
				resp, err := http.Get(httpServer.URL() + "/api/documents/nonexistent")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("GET /api/documents/{id}/text", func() {
		BeforeEach(func() {
			db.documents["doc-1"] = &Document{ID: "doc-1", RawTextPath: "doc-1.txt"}
			storage.files["doc-1.txt"] = []byte("the raw inference text")
			db.documents["doc-2"] = &Document{ID: "doc-2"}
			setupServer()
		})

		It("returns the stored raw text", func() {
			resp, err := http.Get(httpServer.URL() + "/api/documents/doc-1/text")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/plain"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal("the raw inference text"))
		})

		When("the document has no stored text", func() {
			It("returns 404", func() {
				resp, err := http.Get(httpServer.URL() + "/api/documents/doc-2/text")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("DELETE /api/documents/{id}", func() {
		BeforeEach(func() {
			db.documents["doc-1"] = &Document{ID: "doc-1"}
			setupServer()
		})

		It("deletes the document", func() {
			req, err := http.NewRequest("DELETE", httpServer.URL()+"/api/documents/doc-1", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.documents).NotTo(HaveKey("doc-1"))
		})

		When("the document does not exist", func() {
			It("returns an error status", func() {
				req, err := http.NewRequest("DELETE", httpServer.URL()+"/api/documents/nonexistent", nil)
				Expect(err).NotTo(HaveOccurred())

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			basicAuth = BasicAuth{Username: "admin", Password: "secret"}
			setupServer()
		})

		It("rejects requests without credentials", func() {
			resp, err := http.Get(httpServer.URL() + "/api/documents")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
		})

		It("rejects requests with wrong credentials", func() {
			req, err := http.NewRequest("GET", httpServer.URL()+"/api/documents", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("admin", "wrong")

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("accepts requests with correct credentials", func() {
			req, err := http.NewRequest("GET", httpServer.URL()+"/api/documents", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("admin", "secret")

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})
