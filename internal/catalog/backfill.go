package catalog

// Back-fill: every brand or specification value the caller explicitly
// requested must appear in the facet output, zero-counted when it matched
// nothing. The merges below copy into fresh slices and never touch the
// parsed query.

func mergeBrandBackfill(computed []BrandFacet, requested []string) []BrandFacet {
	out := make([]BrandFacet, 0, len(computed)+len(requested))
	seen := make(map[string]struct{}, len(computed))
	for _, facet := range computed {
		out = append(out, facet)
		seen[facet.Name] = struct{}{}
	}
	for _, name := range requested {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, BrandFacet{Name: name, Count: 0})
	}
	return out
}

func mergeSpecBackfill(computed []SpecificationFacet, requested map[string][]string) []SpecificationFacet {
	out := make([]SpecificationFacet, 0, len(computed)+len(requested))
	bySlug := make(map[string]int, len(computed))
	for _, facet := range computed {
		merged := facet
		merged.Values = mergeFacetValues(facet.Values, requested[facet.Slug])
		bySlug[facet.Slug] = len(out)
		out = append(out, merged)
	}

	for _, slug := range specSlugsOf(requested) {
		if _, ok := bySlug[slug]; ok {
			continue
		}
		out = append(out, SpecificationFacet{
			Name:   slug,
			Slug:   slug,
			Values: mergeFacetValues(nil, requested[slug]),
		})
	}
	return out
}

func mergeFacetValues(computed []FacetValue, requested []string) []FacetValue {
	out := make([]FacetValue, 0, len(computed)+len(requested))
	seen := make(map[string]struct{}, len(computed))
	for _, value := range computed {
		out = append(out, value)
		seen[value.Value] = struct{}{}
	}
	for _, value := range requested {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, FacetValue{Value: value, Count: 0})
	}
	return out
}
