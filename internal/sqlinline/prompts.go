package sqlinline

const QInsertPrompt = `--sql 456e5936-2f3c-49a0-9dc7-3e06457bfe61
insert into prompts (id, owner_id, prompt_text, title, status, idempotency_key, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, 'pending', $5::text, now(), now())
on conflict (owner_id, idempotency_key) where idempotency_key is not null do nothing
returning id::text, owner_id, prompt_text, title, status, generation_handle, generated_source,
          compiled_artifact, preview_slug, failure_reason, sandbox_config, attempt_count,
          idempotency_key, created_at, updated_at;
`

const QSelectPromptByIdempotencyKey = `--sql 258455b1-9f41-4392-b8dc-fd3394ce608e
select id::text, owner_id, prompt_text, title, status, generation_handle, generated_source,
       compiled_artifact, preview_slug, failure_reason, sandbox_config, attempt_count,
       idempotency_key, created_at, updated_at
from prompts
where owner_id = $1::text and idempotency_key = $2::text;
`

const QListPromptsForOwner = `--sql f60305cc-4522-4045-85dd-ae2027822c69
select id::text, owner_id, prompt_text, title, status, generation_handle, generated_source,
       compiled_artifact, preview_slug, failure_reason, sandbox_config, attempt_count,
       idempotency_key, created_at, updated_at
from prompts
where owner_id = $1::text
order by created_at desc, id desc;
`

const QSelectPromptForOwner = `--sql 9b182ebc-947d-4b68-8d39-85a13dd42fb5
select id::text, owner_id, prompt_text, title, status, generation_handle, generated_source,
       compiled_artifact, preview_slug, failure_reason, sandbox_config, attempt_count,
       idempotency_key, created_at, updated_at
from prompts
where id = $1::uuid and owner_id = $2::text;
`

const QSelectPromptBySlugForOwner = `--sql e5d62b21-0d96-4787-bb63-5032dd20797f
select id::text, owner_id, prompt_text, title, status, generation_handle, generated_source,
       compiled_artifact, preview_slug, failure_reason, sandbox_config, attempt_count,
       idempotency_key, created_at, updated_at
from prompts
where preview_slug = $1::text and owner_id = $2::text;
`

const QDeletePromptForOwner = `--sql a6a7536c-ce33-4e96-bf9d-fce5eea1e780
delete from prompts
where id = $1::uuid and owner_id = $2::text;
`

// QListEligiblePrompts selects pending and building prompts plus failed ones
// still under the attempt cap ($2 <= 0 disables the cap), oldest update first.
const QListEligiblePrompts = `--sql 7ad081c5-1155-44ba-be47-c2fad09844aa
select id::text, owner_id, prompt_text, title, status, generation_handle, generated_source,
       compiled_artifact, preview_slug, failure_reason, sandbox_config, attempt_count,
       idempotency_key, created_at, updated_at
from prompts
where status in ('pending', 'building')
   or (status = 'failed' and ($2::int <= 0 or attempt_count < $2::int))
order by updated_at asc, id asc
limit $1::int;
`

const QMarkPromptBuilding = `--sql b11ddf68-6120-46f3-bc72-df735ba202e7
update prompts
set status = 'building',
    attempt_count = attempt_count + 1,
    generation_handle = coalesce($2::text, generation_handle),
    updated_at = now()
where id = $1::uuid;
`

const QSavePromptGeneration = `--sql 5b3518e5-edeb-4755-9e65-4eda1e8d6964
update prompts
set generation_handle = $2::text,
    generated_source = $3::text,
    updated_at = now()
where id = $1::uuid;
`

const QMarkPromptFailed = `--sql 974c4eb5-98da-469a-b871-19ba593f8291
update prompts
set status = 'failed',
    failure_reason = $2::text,
    updated_at = now()
where id = $1::uuid;
`

// QSavePromptBuildResult keeps an existing preview slug; the slug is assigned once.
const QSavePromptBuildResult = `--sql ca02e1f9-beca-41df-aeeb-6ef22369b9d4
update prompts
set status = 'ready',
    generated_source = $2::text,
    compiled_artifact = $3::text,
    preview_slug = coalesce(preview_slug, $4::text),
    sandbox_config = $5::jsonb,
    failure_reason = null,
    updated_at = now()
where id = $1::uuid;
`

const QNotifyPromptQueued = `--sql 0552a4fb-2f7e-48ec-a6e9-f83b6387d942
select pg_notify($1::text, $2::text);
`
