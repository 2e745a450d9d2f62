package capabilities

import (
	"fmt"

	"github.com/navvy-ai/navvy/capability"
)

const ocrScript = `from PIL import Image
import pytesseract

path = %q
lang = %q
print(pytesseract.image_to_string(Image.open(path), lang=lang).strip())
`

// ExtractTextFromImage runs tesseract OCR over an image in the sandbox.
func ExtractTextFromImage() *capability.FuncCapability {
	return capability.NewFunc(
		"extract_text_from_image",
		"Extract text from an image file using OCR.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"image_path": map[string]any{
					"type":        "string",
					"description": "Path to the image, relative to the sandbox root.",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Tesseract language code. Defaults to eng.",
				},
			},
			"required": []string{"image_path"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			path, _ := args["image_path"].(string)
			lang, _ := args["language"].(string)
			if lang == "" {
				lang = "eng"
			}

			out, err := runHelperScript(ctx, "ocr", fmt.Sprintf(ocrScript, path, lang), defaultHelperTimeout)
			if err != nil {
				return capability.Failure("ocr failed: %v", err)
			}
			return capability.Success(out)
		},
	)
}

const transcribeScript = `import whisper

model = whisper.load_model(%q)
result = model.transcribe(%q)
print(result["text"].strip())
`

// TranscribeAudio converts speech in an audio file to text.
func TranscribeAudio() *capability.FuncCapability {
	return capability.NewFunc(
		"transcribe_audio",
		"Transcribe speech from an audio file to text.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"audio_path": map[string]any{
					"type":        "string",
					"description": "Path to the audio file, relative to the sandbox root.",
				},
				"model": map[string]any{
					"type":        "string",
					"description": "Whisper model size. Defaults to base.",
				},
			},
			"required": []string{"audio_path"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			path, _ := args["audio_path"].(string)
			size, _ := args["model"].(string)
			if size == "" {
				size = "base"
			}

			out, err := runHelperScript(ctx, "transcribe", fmt.Sprintf(transcribeScript, size, path), defaultHelperTimeout)
			if err != nil {
				return capability.Failure("transcription failed: %v", err)
			}
			return capability.Success(out)
		},
	)
}

const documentScript = `path = %q
if path.lower().endswith(".pdf"):
    from pypdf import PdfReader
    reader = PdfReader(path)
    text = "\n".join(page.extract_text() or "" for page in reader.pages)
else:
    with open(path, "r", encoding="utf-8", errors="replace") as f:
        text = f.read()
print(text.strip())
`

// ExtractDocumentData pulls plain text out of a document file.
func ExtractDocumentData() *capability.FuncCapability {
	return capability.NewFunc(
		"extract_document_data",
		"Extract the text content of a document. PDFs are parsed page by page; other files are read as text.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "Path to the document, relative to the sandbox root.",
				},
			},
			"required": []string{"file_path"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			path, _ := args["file_path"].(string)

			out, err := runHelperScript(ctx, "document", fmt.Sprintf(documentScript, path), defaultHelperTimeout)
			if err != nil {
				return capability.Failure("document extraction failed: %v", err)
			}
			return capability.Success(out)
		},
	)
}
