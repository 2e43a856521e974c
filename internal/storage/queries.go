package storage

const upsertAccount = `
INSERT INTO accounts (id, name, description, archived, created_at, updated_at, is_default, type, balance_cents)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    archived = excluded.archived,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at,
    is_default = excluded.is_default,
    type = excluded.type,
    balance_cents = excluded.balance_cents`

const upsertCategory = `
INSERT INTO categories (id, name, color, parent_id, is_default, type)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    color = excluded.color,
    parent_id = excluded.parent_id,
    is_default = excluded.is_default,
    type = excluded.type`

const upsertCreditCard = `
INSERT INTO credit_cards (id, name, description, archived, created_at, updated_at, is_default,
                          limit_cents, closing_day, due_day, current_balance_cents)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    archived = excluded.archived,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at,
    is_default = excluded.is_default,
    limit_cents = excluded.limit_cents,
    closing_day = excluded.closing_day,
    due_day = excluded.due_day,
    current_balance_cents = excluded.current_balance_cents`

const upsertTransaction = `
INSERT INTO transactions (id, description, date, paid, amount_cents, total_installments, installment,
                          recurring, account_id, category_id, credit_card_id, credit_card_invoice_id, notes, tags)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    description = excluded.description,
    date = excluded.date,
    paid = excluded.paid,
    amount_cents = excluded.amount_cents,
    total_installments = excluded.total_installments,
    installment = excluded.installment,
    recurring = excluded.recurring,
    account_id = excluded.account_id,
    category_id = excluded.category_id,
    credit_card_id = excluded.credit_card_id,
    credit_card_invoice_id = excluded.credit_card_invoice_id,
    notes = excluded.notes,
    tags = excluded.tags`

const upsertInvoice = `
INSERT INTO credit_card_invoices (id, date, starting_date, closing_date, amount_cents, payment_amount_cents,
                                  balance_cents, previous_balance_cents, credit_card_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    date = excluded.date,
    starting_date = excluded.starting_date,
    closing_date = excluded.closing_date,
    amount_cents = excluded.amount_cents,
    payment_amount_cents = excluded.payment_amount_cents,
    balance_cents = excluded.balance_cents,
    previous_balance_cents = excluded.previous_balance_cents,
    credit_card_id = excluded.credit_card_id`

const insertSnapshotRun = `
INSERT INTO snapshot_runs (saved_at, accounts, categories, credit_cards, transactions, invoices)
VALUES (?, ?, ?, ?, ?, ?)`

const selectAccounts = `
SELECT id, name, description, archived, created_at, updated_at, is_default, type, balance_cents
FROM accounts ORDER BY id`

const selectCategories = `
SELECT id, name, color, parent_id, is_default, type
FROM categories ORDER BY id`

const selectCreditCards = `
SELECT id, name, description, archived, created_at, updated_at, is_default,
       limit_cents, closing_day, due_day, current_balance_cents
FROM credit_cards ORDER BY id`

// Optional filters are passed twice: once for the IS NULL test, once for
// the comparison.
const selectTransactions = `
SELECT id, description, date, paid, amount_cents, total_installments, installment, recurring,
       account_id, category_id, credit_card_id, credit_card_invoice_id, notes, tags
FROM transactions
WHERE date BETWEEN ? AND ?
  AND (? IS NULL OR account_id = ?)
  AND (? IS NULL OR category_id = ?)
ORDER BY date, id`

const selectInvoices = `
SELECT id, date, starting_date, closing_date, amount_cents, payment_amount_cents,
       balance_cents, previous_balance_cents, credit_card_id
FROM credit_card_invoices
WHERE credit_card_id = ? AND date BETWEEN ? AND ?
ORDER BY date, id`
