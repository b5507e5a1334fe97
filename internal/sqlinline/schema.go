package sqlinline

// QSchema bootstraps the tables the lifecycle needs. Every statement is
// idempotent so it can run on each process start.
const QSchema = `--sql 9aeb6fc6-484f-46cd-9355-4cbed9714426
create table if not exists prompts (
    id                uuid primary key,
    owner_id          text not null,
    prompt_text       text not null check (length(btrim(prompt_text)) > 0),
    title             text not null,
    status            text not null default 'pending'
                      check (status in ('pending', 'building', 'ready', 'failed')),
    generation_handle text,
    generated_source  text,
    compiled_artifact text,
    preview_slug      text unique,
    failure_reason    text,
    sandbox_config    jsonb,
    attempt_count     integer not null default 0,
    idempotency_key   text,
    created_at        timestamptz not null default now(),
    updated_at        timestamptz not null default now()
);

create unique index if not exists ux_prompts_owner_idempotency
    on prompts (owner_id, idempotency_key)
    where idempotency_key is not null;
create index if not exists idx_prompts_owner_created on prompts (owner_id, created_at desc);
create index if not exists idx_prompts_eligible on prompts (status, updated_at);

create table if not exists prompt_events (
    id         bigserial primary key,
    prompt_id  uuid not null references prompts(id) on delete cascade,
    level      text not null check (level in ('info', 'error')),
    message    text not null,
    context    jsonb,
    created_at timestamptz not null default clock_timestamp()
);

create index if not exists idx_prompt_events_prompt_created on prompt_events (prompt_id, created_at desc, id desc);

create table if not exists integration_tokens (
    id         uuid primary key default gen_random_uuid(),
    provider   text not null unique,
    token      text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`
