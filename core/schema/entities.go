package schema

// Built-in entity definitions. Field order determines column order in created
// tables; migration only ever appends to live tables, so reordering here does
// not reorder existing deployments.

// EntityAccount describes CRM accounts. Billing and shipping addresses arrive
// as structured objects and are stored serialized as text.
var EntityAccount = Entity{
	Name:      "account",
	Table:     "accounts",
	APIModule: "Accounts",
	Fields: []Field{
		{Column: "id", APIName: "id", Type: TypeText, PrimaryKey: true},
		{Column: "name", APIName: "Account_Name", Type: TypeText},
		{Column: "industry", APIName: "Industry", Type: TypeText},
		{Column: "website", APIName: "Website", Type: TypeText},
		{Column: "phone", APIName: "Phone", Type: TypeText},
		{Column: "billing_address", APIName: "Billing_Address", Type: TypeLongText},
		{Column: "shipping_address", APIName: "Shipping_Address", Type: TypeLongText},
		{Column: "annual_revenue", APIName: "Annual_Revenue", Type: TypeInteger},
		{Column: "employee_count", APIName: "Employees", Type: TypeInteger},
		{Column: "updated_time", APIName: "Modified_Time", Type: TypeTimestamp},
	},
}

// EntityContact describes CRM contacts. account_id is populated from the
// Account_Name lookup reference.
var EntityContact = Entity{
	Name:      "contact",
	Table:     "contacts",
	APIModule: "Contacts",
	Fields: []Field{
		{Column: "id", APIName: "id", Type: TypeText, PrimaryKey: true},
		{Column: "first_name", APIName: "First_Name", Type: TypeText},
		{Column: "last_name", APIName: "Last_Name", Type: TypeText},
		{Column: "email", APIName: "Email", Type: TypeText},
		{Column: "phone", APIName: "Phone", Type: TypeText},
		{Column: "account_id", APIName: "Account_Name", Type: TypeText, Reference: "accounts"},
		{Column: "title", APIName: "Title", Type: TypeText},
		{Column: "department", APIName: "Department", Type: TypeText},
		{Column: "updated_time", APIName: "Modified_Time", Type: TypeTimestamp},
	},
}

// EntityInternRole describes internship role records.
var EntityInternRole = Entity{
	Name:      "intern_role",
	Table:     "intern_roles",
	APIModule: "Intern_Roles",
	Fields: []Field{
		{Column: "id", APIName: "id", Type: TypeText, PrimaryKey: true},
		{Column: "role_title", APIName: "Role_Title", Type: TypeText},
		{Column: "contact_id", APIName: "Contact_Name", Type: TypeText, Reference: "contacts"},
		{Column: "account_id", APIName: "Account_Name", Type: TypeText, Reference: "accounts"},
		{Column: "start_date", APIName: "Start_Date", Type: TypeTimestamp},
		{Column: "end_date", APIName: "End_Date", Type: TypeTimestamp},
		{Column: "status", APIName: "Status", Type: TypeText},
		{Column: "description", APIName: "Description", Type: TypeLongText},
		{Column: "updated_time", APIName: "Modified_Time", Type: TypeTimestamp},
	},
}

// EntityDocument records contact attachments downloaded into the blob store.
// Rows are produced locally by the attachment manager, not fetched as a CRM
// list module, but the table is migrated like any other entity.
var EntityDocument = Entity{
	Name:  "document",
	Table: "documents",
	Fields: []Field{
		{Column: "id", Type: TypeText, PrimaryKey: true},
		{Column: "contact_id", Type: TypeText, Reference: "contacts"},
		{Column: "file_name", Type: TypeText},
		{Column: "storage_key", Type: TypeText},
		{Column: "mime_type", Type: TypeText},
		{Column: "size_bytes", Type: TypeInteger},
		{Column: "downloaded_at", Type: TypeTimestamp},
	},
}

// EntitySyncRun is the per-entity sync bookkeeping table. One row per entity,
// keyed on the entity name, updated after each successful load.
var EntitySyncRun = Entity{
	Name:  "sync_run",
	Table: "sync_runs",
	Fields: []Field{
		{Column: "entity", Type: TypeText, PrimaryKey: true},
		{Column: "last_synced_at", Type: TypeTimestamp},
		{Column: "records_synced", Type: TypeInteger},
		{Column: "updated_at", Type: TypeTimestamp},
	},
}
