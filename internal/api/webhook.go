package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go/client"
	"github.com/twilio/twilio-go/twiml"

	"socialsaver/internal/config"
	"socialsaver/internal/pipeline"
)

const (
	channelWhatsApp = "whatsapp"
	senderPrefix    = "whatsapp:"
	xmlContentType  = "application/xml"

	// fallbackTwiML is sent when rendering the reply itself fails.
	fallbackTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response><Message>` +
		pipeline.ReplyError + `</Message></Response>`
)

// WebhookHandler receives Twilio WhatsApp messages and answers with TwiML.
type WebhookHandler struct {
	ingester  Ingester
	validator *client.RequestValidator
	publicURL string
	log       logrus.FieldLogger
}

func NewWebhookHandler(ingester Ingester, cfg config.TwilioConfig, logger logrus.FieldLogger) *WebhookHandler {
	h := &WebhookHandler{
		ingester: ingester,
		log:      logger.WithField("channel", channelWhatsApp),
	}
	if cfg.ValidateSignature {
		validator := client.NewRequestValidator(cfg.AuthToken)
		h.validator = &validator
		h.publicURL = cfg.WebhookURL
	}
	return h
}

// Receive handles POST /api/whatsapp/webhook. Every accepted request gets a
// TwiML answer, including when processing fails.
func (h *WebhookHandler) Receive(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		h.log.WithError(err).Warn("Malformed webhook form")
		h.reply(c, pipeline.ReplyError)
		return
	}

	if h.validator != nil && !h.validSignature(c) {
		h.log.Warn("Rejected webhook with invalid Twilio signature")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	sender := strings.ReplaceAll(c.Request.PostForm.Get("From"), senderPrefix, "")
	body := c.Request.PostForm.Get("Body")

	out := h.ingester.Ingest(c.Request.Context(), channelWhatsApp, sender, body)
	h.reply(c, out.Reply)
}

func (h *WebhookHandler) validSignature(c *gin.Context) bool {
	params := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return h.validator.Validate(h.publicURL, params, c.GetHeader("X-Twilio-Signature"))
}

func (h *WebhookHandler) reply(c *gin.Context, text string) {
	doc, err := twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: text}})
	if err != nil {
		h.log.WithError(err).Error("Failed to render TwiML")
		doc = fallbackTwiML
	}
	c.Data(http.StatusOK, xmlContentType, []byte(doc))
}
