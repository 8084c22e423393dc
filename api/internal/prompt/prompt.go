// Package prompt renders the instruction text sent to the model.
//
// Build is a pure function of its inputs: the same patient fields and image
// count always produce byte-identical text.
package prompt

import (
	"strings"

	"icf-classifier/api/internal/icf"
	"icf-classifier/api/internal/imaging"
)

// Prompt is the rendered user prompt plus the images to attach after it.
type Prompt struct {
	Text string
	// AttachImages is true when the text announces attached images.
	AttachImages bool
	Images       []*imaging.NormalizedImage
}

// Build renders the prompt for in and imageCount images.
func Build(in icf.PatientInput, imageCount int) Prompt {
	in = in.Normalized()

	var b strings.Builder
	b.WriteString(Persona)
	b.WriteString("\n")
	b.WriteString(purpose(in.HasText(), imageCount > 0))
	b.WriteString("\n\n")

	if in.HasText() {
		b.WriteString("# Patient information\n")
		writeField(&b, "Patient ID", in.PatientID)
		writeField(&b, "Age", in.Age)
		writeField(&b, "Gender", genderLabel(in.Gender))
		writeField(&b, "Diagnosis", in.Diagnosis)
		writeField(&b, "Symptoms/Condition", in.Symptoms)
		writeField(&b, "Environmental factors", in.EnvironmentalFactors)
		writeField(&b, "Personal factors", in.PersonalFactors)
		b.WriteString("\n")
	}

	if imageCount > 0 {
		b.WriteString("# Images\n")
		b.WriteString(imagesClause)
		b.WriteString("\n\n")
	}

	b.WriteString(thinkingProcess)
	b.WriteString("\n\n")
	b.WriteString(fieldGuide)
	b.WriteString("\n\n")
	b.WriteString(outputFormat)
	b.WriteString("\n\n")
	b.WriteString(notes)
	b.WriteString("\n")

	return Prompt{Text: b.String(), AttachImages: imageCount > 0}
}

// WithImages returns a copy of p carrying imgs as attachments.
func (p Prompt) WithImages(imgs []*imaging.NormalizedImage) Prompt {
	p.Images = imgs
	p.AttachImages = len(imgs) > 0
	return p
}

func purpose(hasText, hasImages bool) string {
	switch {
	case hasText && hasImages:
		return "Analyze the patient information below and the uploaded images and produce a summary built on the six components of the ICF."
	case hasImages:
		return "Analyze the uploaded images and produce a summary built on the six components of the ICF."
	default:
		return "Analyze the patient information below and produce a summary built on the six components of the ICF."
	}
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString("- ")
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func genderLabel(g icf.Gender) string {
	switch g {
	case icf.GenderMale:
		return "male"
	case icf.GenderFemale:
		return "female"
	case icf.GenderOther:
		return "other"
	default:
		return ""
	}
}
