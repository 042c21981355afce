package processor

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"finmec/internal/openai"
	"finmec/internal/uazapi"
)

const (
	msgMissingID   = "Erro ao processar mídia: ID da mensagem não fornecido."
	msgUnsupported = "Desculpe, ainda não suporto mensagens do tipo %s."

	msgAudioEmpty    = "Não consegui processar o áudio. Tente enviar novamente."
	msgImageEmpty    = "Não consegui processar a imagem. Tente enviar novamente."
	msgDocumentEmpty = "Não consegui processar o documento. Tente enviar novamente."

	msgAudioFailed    = "Desculpe, tive um problema ao processar seu áudio. Pode tentar enviar novamente ou escrever a mensagem?"
	msgImageFailed    = "Desculpe, tive um problema ao analisar sua imagem. Pode tentar enviar novamente ou descrever os itens?"
	msgDocumentFailed = "Desculpe, tive um problema ao analisar seu documento. Pode tentar enviar novamente ou descrever as informações?"
)

const imagePrompt = `Descreva todos os itens presentes nessa imagem que tenham um preço associado.
Para cada item identificado, formate a saída da seguinte maneira:

Comprei [nome do item] por [valor do item].

Regras importantes:
1. Use APENAS números para os valores (sem símbolos de moeda)
2. Coloque cada item em uma nova linha
3. Se não houver itens com preço, responda: "Não encontrei itens com preço nesta imagem"
4. Seja preciso com os valores encontrados
5. Se for uma nota fiscal ou cupom, extraia TODOS os itens listados`

const documentPrompt = `Analise este documento e extraia todas as informações financeiras relevantes.
Identifique:
1. Descrição de produtos/serviços
2. Valores
3. Datas (se disponíveis)
4. Categorias (se identificável: alimentação, saúde, etc)

Formate como:
Comprei [item] por [valor] em [data se disponível].

Se for uma fatura ou boleto, extraia:
- Valor total
- Data de vencimento
- Descrição do serviço/produto`

// Message is the part of an inbound WhatsApp message the router needs.
type Message struct {
	ID           string
	Type         string
	Body         string
	Conversation string
}

type MediaDownloader interface {
	DownloadMedia(ctx context.Context, messageID string) (uazapi.Media, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error)
}

type Vision interface {
	DescribeMedia(ctx context.Context, prompt, mimeType, base64Data string) (string, error)
}

// Processor turns any supported message kind into plain text for the agent.
type Processor struct {
	media       MediaDownloader
	transcriber Transcriber
	vision      Vision
	logger      *slog.Logger
	handlers    map[string]func(context.Context, Message) string
}

func New(media MediaDownloader, transcriber Transcriber, vision Vision, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{media: media, transcriber: transcriber, vision: vision, logger: logger}
	p.handlers = map[string]func(context.Context, Message) string{
		"conversation":        p.conversation,
		"extendedtextmessage": p.extendedText,
		"audiomessage":        p.audio,
		"imagemessage":        p.image,
		"documentmessage":     p.document,
	}
	return p
}

func isMedia(kind string) bool {
	return kind == "audiomessage" || kind == "imagemessage" || kind == "documentmessage"
}

// Process never returns an error; failures become a reply text.
func (p *Processor) Process(ctx context.Context, msg Message) string {
	kind := strings.ToLower(msg.Type)
	handler, ok := p.handlers[kind]
	if !ok {
		p.logger.Warn("unsupported message type", "type", msg.Type)
		return fmt.Sprintf(msgUnsupported, msg.Type)
	}
	if isMedia(kind) && msg.ID == "" {
		p.logger.Error("media message without id", "type", msg.Type)
		return msgMissingID
	}
	return handler(ctx, msg)
}

func (p *Processor) conversation(_ context.Context, msg Message) string {
	if msg.Conversation != "" {
		return msg.Conversation
	}
	return msg.Body
}

func (p *Processor) extendedText(_ context.Context, msg Message) string {
	if msg.Body != "" {
		return msg.Body
	}
	return msg.Conversation
}

func (p *Processor) audio(ctx context.Context, msg Message) string {
	media, err := p.media.DownloadMedia(ctx, msg.ID)
	if err != nil {
		p.logger.Error("download audio", "message_id", msg.ID, "error", err)
		return msgAudioFailed
	}
	if media.Base64 == "" {
		p.logger.Error("audio download returned no data", "message_id", msg.ID)
		return msgAudioEmpty
	}
	audio, err := base64.StdEncoding.DecodeString(media.Base64)
	if err != nil {
		p.logger.Error("decode audio", "message_id", msg.ID, "error", err)
		return msgAudioFailed
	}
	text, err := p.transcriber.Transcribe(ctx, audio, "audio."+openai.ExtensionFor(media.Mimetype), "pt")
	if err != nil {
		p.logger.Error("transcribe audio", "message_id", msg.ID, "error", err)
		return msgAudioFailed
	}
	return text
}

func (p *Processor) image(ctx context.Context, msg Message) string {
	media, err := p.media.DownloadMedia(ctx, msg.ID)
	if err != nil {
		p.logger.Error("download image", "message_id", msg.ID, "error", err)
		return msgImageFailed
	}
	if media.Base64 == "" {
		p.logger.Error("image download returned no data", "message_id", msg.ID)
		return msgImageEmpty
	}
	mimetype := media.Mimetype
	if mimetype == "" {
		mimetype = "image/jpeg"
	}
	text, err := p.vision.DescribeMedia(ctx, imagePrompt, mimetype, media.Base64)
	if err != nil {
		p.logger.Error("analyze image", "message_id", msg.ID, "error", err)
		return msgImageFailed
	}
	return text
}

func (p *Processor) document(ctx context.Context, msg Message) string {
	media, err := p.media.DownloadMedia(ctx, msg.ID)
	if err != nil {
		p.logger.Error("download document", "message_id", msg.ID, "error", err)
		return msgDocumentFailed
	}
	if media.Base64 == "" {
		p.logger.Error("document download returned no data", "message_id", msg.ID)
		return msgDocumentEmpty
	}
	mimetype := media.Mimetype
	if mimetype == "" {
		mimetype = "application/pdf"
	}

	if strings.Contains(mimetype, "pdf") {
		if raw, err := base64.StdEncoding.DecodeString(media.Base64); err == nil {
			layer := ExtractText(raw)
			if layer.Err != nil {
				p.logger.Warn("pdf text layer unavailable", "message_id", msg.ID, "error", layer.Err)
			}
			if !layer.Scanned {
				p.logger.Info("using pdf text layer", "message_id", msg.ID, "pages", layer.Pages)
				return documentPrompt + "\n\nConteúdo do documento:\n" + layer.Text
			}
		}
	}

	text, err := p.vision.DescribeMedia(ctx, documentPrompt, mimetype, media.Base64)
	if err != nil {
		p.logger.Error("analyze document", "message_id", msg.ID, "error", err)
		return msgDocumentFailed
	}
	return text
}
