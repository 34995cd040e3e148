package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"course-advisor/internal/domain"
	"course-advisor/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocuments() []domain.SourceDocument {
	long := strings.Repeat("CS 301 covers supervised learning and model evaluation. ", 40)
	return []domain.SourceDocument{
		{SourceName: "CS_Catalog.pdf", Department: "Computer Science", Page: 1, Text: long},
		{SourceName: "CS_Catalog.pdf", Department: "Computer Science", Page: 2, Text: "CS 201 - Data Structures"},
		{SourceName: "BIO_Catalog.pdf", Department: "Biology", Page: 1, Text: "BIO 401 - Bioinformatics"},
		{SourceName: "empty.txt", Department: domain.UnknownDepartment, Text: "   "},
	}
}

func TestIndexDocuments_Execute(t *testing.T) {
	writer := newRecordingWriter()
	uc := usecase.NewIndexDocumentsUsecase(writer, domain.NewChunker(500, 100), &fakeEncoder{}, 2, 2, discardLogger())

	out, err := uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: sampleDocuments()})
	require.NoError(t, err)

	assert.Equal(t, 3, out.Sources)
	assert.Equal(t, 4, out.Documents)
	assert.Greater(t, out.Chunks, 3)
	assert.Len(t, writer.chunks, out.Chunks)
	for _, c := range writer.chunks {
		assert.NotEmpty(t, c.Embedding)
		assert.NotEqual(t, domain.UnknownDepartment, c.Department)
	}
}

func TestIndexDocuments_Idempotent(t *testing.T) {
	writer := newRecordingWriter()
	uc := usecase.NewIndexDocumentsUsecase(writer, domain.NewChunker(500, 100), &fakeEncoder{}, 4, 1, discardLogger())

	first, err := uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: sampleDocuments()})
	require.NoError(t, err)
	_, err = uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: sampleDocuments()})
	require.NoError(t, err)

	assert.Len(t, writer.chunks, first.Chunks)
	assert.Equal(t, 2*first.Chunks, writer.upserted)
}

func TestIndexDocuments_ForceResets(t *testing.T) {
	writer := newRecordingWriter()
	uc := usecase.NewIndexDocumentsUsecase(writer, domain.NewChunker(0, -1), &fakeEncoder{}, 0, 0, discardLogger())

	_, err := uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: sampleDocuments(), Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, writer.resets)
}

func TestIndexDocuments_Reindex(t *testing.T) {
	writer := newRecordingWriter()
	uc := usecase.NewIndexDocumentsUsecase(writer, domain.NewChunker(500, 100), &fakeEncoder{}, 4, 1, discardLogger())
	_, err := uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: sampleDocuments()})
	require.NoError(t, err)
	writer.replaced = nil

	out, err := uc.Reindex(context.Background(), "BIO_Catalog.pdf", []domain.SourceDocument{
		{SourceName: "BIO_Catalog.pdf", Department: "Biology", Text: "BIO 101 - Introduction to Biology"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Chunks)
	assert.Equal(t, []string{"BIO_Catalog.pdf"}, writer.replaced)
	assert.Equal(t, []string{"BIO 101 - Introduction to Biology"}, writer.contents("BIO_Catalog.pdf"))
}

func TestIndexDocuments_ReindexRemovedSource(t *testing.T) {
	writer := newRecordingWriter()
	uc := usecase.NewIndexDocumentsUsecase(writer, domain.NewChunker(500, 100), &fakeEncoder{}, 4, 1, discardLogger())
	_, err := uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: sampleDocuments()})
	require.NoError(t, err)

	out, err := uc.Reindex(context.Background(), "BIO_Catalog.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Chunks)
	assert.Empty(t, writer.contents("BIO_Catalog.pdf"))
	assert.NotEmpty(t, writer.contents("CS_Catalog.pdf"))
}

func TestIndexDocuments_ReindexKeepsSourceWhenEncodingFails(t *testing.T) {
	writer := newRecordingWriter()
	encoder := &fakeEncoder{}
	uc := usecase.NewIndexDocumentsUsecase(writer, domain.NewChunker(500, 100), encoder, 4, 1, discardLogger())
	_, err := uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: sampleDocuments()})
	require.NoError(t, err)
	writer.replaced = nil

	encoder.err = errors.New("embedder down")
	_, err = uc.Reindex(context.Background(), "BIO_Catalog.pdf", []domain.SourceDocument{
		{SourceName: "BIO_Catalog.pdf", Department: "Biology", Text: "BIO 101 - Introduction to Biology"},
	})

	require.Error(t, err)
	assert.Empty(t, writer.replaced)
	assert.Equal(t, []string{"BIO 401 - Bioinformatics"}, writer.contents("BIO_Catalog.pdf"))
}

func TestIndexDocuments_RebuildDropsEditedChunks(t *testing.T) {
	writer := newRecordingWriter()
	uc := usecase.NewIndexDocumentsUsecase(writer, domain.NewChunker(500, 100), &fakeEncoder{}, 4, 1, discardLogger())
	_, err := uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: sampleDocuments()})
	require.NoError(t, err)

	edited := sampleDocuments()
	edited[2].Text = "BIO 402 - Computational Genomics"
	_, err = uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: edited})
	require.NoError(t, err)

	assert.Equal(t, []string{"BIO 402 - Computational Genomics"}, writer.contents("BIO_Catalog.pdf"))
	assert.Zero(t, writer.resets)
}

func TestIndexDocuments_ForceSkipsResetWhenEncodingFails(t *testing.T) {
	writer := newRecordingWriter()
	uc := usecase.NewIndexDocumentsUsecase(writer, domain.NewChunker(500, 100), &fakeEncoder{err: errors.New("embedder down")}, 4, 1, discardLogger())

	_, err := uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: sampleDocuments(), Force: true})

	require.Error(t, err)
	assert.Zero(t, writer.resets)
}

func TestIndexDocuments_EncoderFailure(t *testing.T) {
	writer := newRecordingWriter()
	uc := usecase.NewIndexDocumentsUsecase(writer, domain.NewChunker(500, 100), &fakeEncoder{err: errors.New("embedder down")}, 4, 1, discardLogger())

	_, err := uc.Execute(context.Background(), usecase.IndexDocumentsInput{Documents: sampleDocuments()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedder down")
	assert.Empty(t, writer.chunks)
}
