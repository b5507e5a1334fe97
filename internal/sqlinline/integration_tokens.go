package sqlinline

// QSelectIntegrationToken reads the stored provider key; blank keys count as absent.
const QSelectIntegrationToken = `--sql 32b392a5-9d8a-4d1d-89d2-c0bed731ef62
select token
from integration_tokens
where provider = $1::text
  and btrim(token) <> '';
`

// QUpsertIntegrationToken stores a provider key, merging new properties into
// the existing ones.
const QUpsertIntegrationToken = `--sql 7cb47556-6263-44f0-b8c9-68e11ec964ff
insert into integration_tokens (provider, token, properties)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update set
    token      = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now();
`
