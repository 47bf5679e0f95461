package filetype

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		mime string
		want Pipeline
	}{
		{"application/pdf", PipelinePDF},
		{"image/jpeg", PipelineImage},
		{"image/jpg", PipelineImage},
		{"image/png", PipelineImage},
		{"text/plain", PipelineUnsupported},
		{"application/zip", PipelineUnsupported},
		{"", PipelineUnsupported},
	}
	for _, tt := range tests {
		if got := Classify(tt.mime); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestEquivalent(t *testing.T) {
	tests := []struct {
		detected, declared string
		want               bool
	}{
		{"image/jpeg", "image/jpg", true},
		{"image/jpg", "image/jpeg", true},
		{"application/pdf", "application/pdf", true},
		{"image/png", "image/png", true},
		{"image/png", "image/jpeg", false},
		{"application/pdf", "image/png", false},
		{"text/plain", "text/plain", true},
	}
	for _, tt := range tests {
		if got := Equivalent(tt.detected, tt.declared); got != tt.want {
			t.Errorf("Equivalent(%q, %q) = %v, want %v", tt.detected, tt.declared, got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	pdf := append([]byte("%PDF-1.7\n"), make([]byte, 64)...)
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"pdf", pdf, "application/pdf"},
		{"png", png, "image/png"},
		{"jpeg", jpeg, "image/jpeg"},
		{"plain text", []byte("hello world, this is not an invoice"), "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.data); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}
