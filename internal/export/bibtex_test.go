package export

import (
	"strings"
	"testing"

	"github.com/renyezhang/toppaper/internal/record"
)

func TestToBibTeX(t *testing.T) {
	rec := record.Record{
		Title:   "Masked Autoencoders Are Scalable Vision Learners",
		Authors: []string{"Kaiming He", "Xinlei Chen"},
		PDFLink: "https://openaccess.thecvf.com/mae.pdf",
		Source:  "CVPR",
		Year:    2022,
	}
	rec.SetCode("https://github.com/facebookresearch/mae")

	got := ToBibTeX(rec, "he2022masked", VenueNames{"CVPR": "Computer Vision and Pattern Recognition"})

	for _, want := range []string{
		"@inproceedings{he2022masked,",
		"author = {Kaiming He and Xinlei Chen}",
		"title = {Masked Autoencoders Are Scalable Vision Learners}",
		"booktitle = {Computer Vision and Pattern Recognition}",
		"year = {2022}",
		"url = {https://openaccess.thecvf.com/mae.pdf}",
		`note = {Code: \url{https://github.com/facebookresearch/mae}}`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ToBibTeX() missing %q, got:\n%s", want, got)
		}
	}
}

func TestToBibTeX_MinimalRecord(t *testing.T) {
	rec := record.Record{Title: "Untitled Work", Source: "ICLR"}
	rec.SetCode("")

	got := ToBibTeX(rec, "anonuntitled", nil)

	for _, unwanted := range []string{"author =", "year =", "url =", "note ="} {
		if strings.Contains(got, unwanted) {
			t.Errorf("ToBibTeX() should not contain %q, got:\n%s", unwanted, got)
		}
	}
	if !strings.Contains(got, "booktitle = {ICLR}") {
		t.Errorf("ToBibTeX() should fall back to the venue code, got:\n%s", got)
	}
}

func TestCiteKey(t *testing.T) {
	tests := []struct {
		name string
		rec  record.Record
		want string
	}{
		{
			name: "basic",
			rec:  record.Record{Title: "Masked Autoencoders", Authors: []string{"Kaiming He"}, Year: 2022},
			want: "he2022masked",
		},
		{
			name: "skips short and stop words",
			rec:  record.Record{Title: "On the Power of Graphs", Authors: []string{"Ana Müller"}, Year: 2021},
			want: "muller2021power",
		},
		{
			name: "no authors no year",
			rec:  record.Record{Title: "Towards Robustness"},
			want: "anonrobustness",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CiteKey(tt.rec); got != tt.want {
				t.Errorf("CiteKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToBibTeXList_UniqueKeys(t *testing.T) {
	recs := []record.Record{
		{Title: "Learning Things", Authors: []string{"A Lee"}, Year: 2020},
		{Title: "Learning Stuff", Authors: []string{"B Lee"}, Year: 2020},
		{Title: "Learning More", Authors: []string{"C Lee"}, Year: 2020},
	}

	got := ToBibTeXList(recs, nil)

	for _, key := range []string{"{lee2020learning,", "{lee2020learninga,", "{lee2020learningb,"} {
		if !strings.Contains(got, key) {
			t.Errorf("ToBibTeXList() missing key %q, got:\n%s", key, got)
		}
	}
}

func TestEscapeLatex(t *testing.T) {
	if got := escapeLatex("R&D at 100% with $x_1$"); got != `R\&D at 100\% with \$x\_1\$` {
		t.Errorf("escapeLatex() = %q", got)
	}
}
