package pagesight

import (
	"fmt"

	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/domain/filter"
)

func fromInternalCollection(c domain.Collection) CollectionInfo {
	return CollectionInfo{
		ID:        c.ID,
		Name:      c.Name,
		Metadata:  c.Metadata,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromInternalDocument(d domain.Document, pages []domain.Page) DocumentInfo {
	info := DocumentInfo{
		ID:        d.ID,
		Name:      d.Name,
		URL:       d.URL,
		BlobPath:  d.BlobPath,
		Metadata:  d.Metadata,
		NumPages:  d.NumPages,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, p := range pages {
		info.Pages = append(info.Pages, PageImage{PageNumber: p.PageNumber, ImageB64: p.ImageB64})
	}
	return info
}

func toInternalSource(s Source) domain.Source {
	return domain.Source{
		URL:      s.URL,
		Base64:   s.Base64,
		BlobPath: s.BlobPath,
		Filename: s.Filename,
		UseProxy: s.UseProxy,
	}
}

func toInternalFilter(f *Filter) (filter.Filter, error) {
	if f == nil {
		return filter.Filter{}, nil
	}
	parsed, err := filter.New(filter.Target(f.On), filter.Lookup(f.Lookup), f.Key, f.Value)
	if err != nil {
		return filter.Filter{}, fmt.Errorf("filter: %w", err)
	}
	return parsed, nil
}

func fromInternalHit(sp domain.ScoredPage) SearchHit {
	return SearchHit{
		CollectionID:       sp.CollectionID,
		CollectionName:     sp.CollectionName,
		CollectionMetadata: sp.CollectionMetadata,
		DocumentID:         sp.DocumentID,
		DocumentName:       sp.DocumentName,
		DocumentMetadata:   sp.DocumentMetadata,
		PageNumber:         sp.Page.PageNumber,
		ImageB64:           sp.Page.ImageB64,
		RawScore:           sp.RawScore,
		NormalizedScore:    sp.NormalizedScore,
	}
}
