package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Includes selects which references are resolved into embedded objects on read.
type Includes struct {
	PaymentMethod bool
	Category      bool
	Attachments   bool
}

// None reports whether nothing needs resolving.
func (i Includes) None() bool {
	return !i.PaymentMethod && !i.Category && !i.Attachments
}

// ParseIncludes reads a comma separated list such as "paymentMethod,attachments".
func ParseIncludes(s string) (Includes, error) {
	var inc Includes
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
		case "paymentmethod", "payment-method", "paymentmethods":
			inc.PaymentMethod = true
		case "category", "categories":
			inc.Category = true
		case "attachment", "attachments":
			inc.Attachments = true
		case "all":
			inc = Includes{PaymentMethod: true, Category: true, Attachments: true}
		default:
			return Includes{}, fmt.Errorf("%w: unknown include %q", common.ErrInvalidArgument, part)
		}
	}
	return inc, nil
}

// lookup is the id-indexed result of one batched fetch.
type lookup struct {
	methods     map[string]*model.PaymentMethod
	categories  map[string]*model.Category
	attachments map[string]model.Attachment
}

// distinct collects the non-empty ids in order of first appearance.
func distinct(ids []string, seen map[string]bool) []string {
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// resolver issues one query per referenced collection, in parallel.
type resolver struct {
	repos *storage.Repositories
}

func (r resolver) fetch(ctx context.Context, tenantID string, methodIDs, categoryIDs, attachmentIDs []string) (*lookup, error) {
	l := &lookup{
		methods:     make(map[string]*model.PaymentMethod),
		categories:  make(map[string]*model.Category),
		attachments: make(map[string]model.Attachment),
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(methodIDs) > 0 {
		g.Go(func() error {
			found, err := r.repos.PaymentMethods.GetByIDs(gctx, storage.WithSystem(tenantID), methodIDs)
			if err != nil {
				return fmt.Errorf("failed to resolve payment methods: %w", err)
			}
			for i := range found {
				l.methods[found[i].ID] = &found[i]
			}
			return nil
		})
	}
	if len(categoryIDs) > 0 {
		g.Go(func() error {
			found, err := r.repos.Categories.GetByIDs(gctx, storage.WithSystem(tenantID), categoryIDs)
			if err != nil {
				return fmt.Errorf("failed to resolve categories: %w", err)
			}
			for i := range found {
				l.categories[found[i].ID] = &found[i]
			}
			return nil
		})
	}
	if len(attachmentIDs) > 0 {
		g.Go(func() error {
			found, err := r.repos.Attachments.GetByIDs(gctx, storage.ForTenant(tenantID), attachmentIDs)
			if err != nil {
				return fmt.Errorf("failed to resolve attachments: %w", err)
			}
			for _, a := range found {
				l.attachments[a.ID] = a
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *lookup) attachmentsFor(ids []string) []model.Attachment {
	var out []model.Attachment
	for _, id := range ids {
		if a, ok := l.attachments[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// populatePayments fills the requested embedded references of payments in place.
func (r resolver) populatePayments(ctx context.Context, tenantID string, payments []model.Payment, inc Includes) error {
	if len(payments) == 0 || inc.None() {
		return nil
	}

	var methodIDs, attachmentIDs []string
	seenMethods, seenAttachments := map[string]bool{}, map[string]bool{}
	for _, p := range payments {
		if inc.PaymentMethod {
			methodIDs = append(methodIDs, distinct([]string{p.PaymentMethodID}, seenMethods)...)
		}
		if inc.Attachments {
			attachmentIDs = append(attachmentIDs, distinct(p.AttachmentIDs, seenAttachments)...)
		}
	}

	l, err := r.fetch(ctx, tenantID, methodIDs, nil, attachmentIDs)
	if err != nil {
		return err
	}

	for i := range payments {
		p := &payments[i]
		if inc.PaymentMethod {
			p.PaymentMethod = l.methods[p.PaymentMethodID]
		}
		if inc.Attachments {
			p.Attachments = l.attachmentsFor(p.AttachmentIDs)
		}
	}
	return nil
}

// populateTransactions fills the requested embedded references of transactions in place.
func (r resolver) populateTransactions(ctx context.Context, tenantID string, txns []model.Transaction, inc Includes) error {
	if len(txns) == 0 || inc.None() {
		return nil
	}

	var methodIDs, categoryIDs, attachmentIDs []string
	seenMethods, seenCategories, seenAttachments := map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, t := range txns {
		if inc.PaymentMethod {
			methodIDs = append(methodIDs, distinct([]string{t.PaymentMethodID}, seenMethods)...)
		}
		if inc.Category {
			categoryIDs = append(categoryIDs, distinct([]string{t.CategoryID}, seenCategories)...)
		}
		if inc.Attachments {
			attachmentIDs = append(attachmentIDs, distinct(t.AttachmentIDs, seenAttachments)...)
		}
	}

	l, err := r.fetch(ctx, tenantID, methodIDs, categoryIDs, attachmentIDs)
	if err != nil {
		return err
	}

	for i := range txns {
		t := &txns[i]
		if inc.PaymentMethod {
			t.PaymentMethod = l.methods[t.PaymentMethodID]
		}
		if inc.Category {
			t.Category = l.categories[t.CategoryID]
		}
		if inc.Attachments {
			t.Attachments = l.attachmentsFor(t.AttachmentIDs)
		}
	}
	return nil
}
