package infrastructure

import (
	"bazaar/internal/service/notification/domain"
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

// 模板里可用 .Name .To 以及 .Data 中的键
var templateSources = map[domain.EventType][2]string{
	domain.StoreApproved: {
		`Your store {{.Name}} is live`,
		`Hi {{.Name}},

Good news: your store {{.Name}} has been approved and is now visible to shoppers.

Storefront: {{.Data.storeUrl}}
Dashboard:  {{.Data.dashboardUrl}}

The Bazaar team
`,
	},
	domain.StoreRejected: {
		`Your store application was not approved`,
		`Hi {{.Name}},

We reviewed your store {{.Name}} and could not approve it at this time.
{{with .Data.reason}}
Reason: {{.}}
{{end}}
You can update your details and contact support if you have questions.

The Bazaar team
`,
	},
	domain.PasswordReset: {
		`Reset your Bazaar password`,
		`Hi {{.Name}},

Use the link below to choose a new password. It expires at {{.Data.expiresAt}}.

{{.Data.resetUrl}}

If you did not ask for this, you can ignore this email.
`,
	},
	domain.ContactReply: {
		`Re: {{.Data.subject}}`,
		`Hi {{.Name}},

{{.Data.reply}}

--- your message ---
{{.Data.original}}
`,
	},
}

// TemplateRenderer 每种事件一套 subject/body 模板
type TemplateRenderer struct {
	from      string
	templates map[domain.EventType]emailTemplate
}

// NewTemplateRenderer 启动时解析全部模板，解析失败直接返回错误
func NewTemplateRenderer(from string) (*TemplateRenderer, error) {
	r := &TemplateRenderer{from: from, templates: make(map[domain.EventType]emailTemplate, len(templateSources))}
	for typ, src := range templateSources {
		subject, err := template.New(string(typ) + ".subject").Option("missingkey=zero").Parse(src[0])
		if err != nil {
			return nil, fmt.Errorf("parse subject template %s: %w", typ, err)
		}
		body, err := template.New(string(typ) + ".body").Option("missingkey=zero").Parse(src[1])
		if err != nil {
			return nil, fmt.Errorf("parse body template %s: %w", typ, err)
		}
		r.templates[typ] = emailTemplate{subject: subject, body: body}
	}
	return r, nil
}

func (r *TemplateRenderer) Render(e domain.Event) (domain.Email, error) {
	tpl, ok := r.templates[e.Type]
	if !ok {
		return domain.Email{}, fmt.Errorf("%w: %q", domain.ErrUnknownEventType, e.Type)
	}
	if e.Data == nil {
		e.Data = map[string]string{}
	}
	if e.Name == "" {
		e.Name = "there"
	}

	var subject, body bytes.Buffer
	if err := tpl.subject.Execute(&subject, e); err != nil {
		return domain.Email{}, fmt.Errorf("render subject: %w", err)
	}
	if err := tpl.body.Execute(&body, e); err != nil {
		return domain.Email{}, fmt.Errorf("render body: %w", err)
	}
	return domain.Email{
		To:      e.To,
		From:    r.from,
		Subject: strings.TrimSpace(subject.String()),
		Body:    body.String(),
	}, nil
}
