package dispatch

import (
	"readpump/source"
)

// Setup builds the run's composer from the configured inputs: unpaired
// paths, mate-1/mate-2 path pairs, and interleaved-pair paths. With
// file-parallel mode each file gets its own source (and its own lock) so
// independent files fill batches concurrently.
func Setup(p *source.Params, singles, m1, m2, interleaved []string) (Composer, error) {
	if p.Format == source.FormatVector {
		return NewSolo([]source.Source{source.NewVector(p, singles)}), nil
	}

	if len(m1) != len(m2) {
		return nil, source.Fatalf("mate files must come in pairs (%d -1 files, %d -2 files)", len(m1), len(m2))
	}

	group := func(paths []string) [][]string {
		if len(paths) == 0 {
			return nil
		}
		if !p.FileParallel {
			return [][]string{paths}
		}
		out := make([][]string, 0, len(paths))
		for _, f := range paths {
			out = append(out, []string{f})
		}
		return out
	}

	// Pairs interleaved in one stream dispatch like unpaired batches.
	if len(interleaved) > 0 {
		var srcs []source.Source
		for _, g := range group(interleaved) {
			s, err := source.New(p, g)
			if err != nil {
				return nil, err
			}
			srcs = append(srcs, s)
		}
		return NewSolo(srcs), nil
	}

	var a, b []source.Source
	if p.FileParallel {
		for i := range m1 {
			sa, err := source.NewPaired(p, []string{m1[i]})
			if err != nil {
				return nil, err
			}
			sb, err := source.NewPaired(p, []string{m2[i]})
			if err != nil {
				return nil, err
			}
			a = append(a, sa)
			b = append(b, sb)
		}
	} else if len(m1) > 0 {
		sa, err := source.NewPaired(p, m1)
		if err != nil {
			return nil, err
		}
		sb, err := source.NewPaired(p, m2)
		if err != nil {
			return nil, err
		}
		a = append(a, sa)
		b = append(b, sb)
	}
	for _, g := range group(singles) {
		s, err := source.New(p, g)
		if err != nil {
			return nil, err
		}
		a = append(a, s)
		b = append(b, nil)
	}
	if len(a) == 0 {
		return nil, source.Fatalf("no input files were specified")
	}
	return NewDual(a, b), nil
}

// NewArchiveComposer wraps the external-archive collaborator as a run's
// sole source.
func NewArchiveComposer(p *source.Params, r source.PairReader, depth int) Composer {
	return NewSolo([]source.Source{source.NewArchive(p, r, depth)})
}
