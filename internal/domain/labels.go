package domain

// Label is a node label in the graph.
type Label string

const (
	LabelCompany               Label = "Company"
	LabelPerson                Label = "Person"
	LabelBusinessCapability    Label = "BusinessCapability"
	LabelApplication           Label = "Application"
	LabelDataObject            Label = "DataObject"
	LabelInfrastructure        Label = "Infrastructure"
	LabelApplicationInterface  Label = "ApplicationInterface"
	LabelArchitecture          Label = "Architecture"
	LabelArchitecturePrinciple Label = "ArchitecturePrinciple"
	LabelAIComponent           Label = "AIComponent"
)

// AllLabels lists every entity label in creation order.
var AllLabels = []Label{
	LabelCompany,
	LabelPerson,
	LabelApplication,
	LabelDataObject,
	LabelInfrastructure,
	LabelApplicationInterface,
	LabelArchitecturePrinciple,
	LabelArchitecture,
	LabelAIComponent,
	LabelBusinessCapability,
}

// RelType is a relationship type in the graph.
type RelType string

const (
	RelOwnedBy             RelType = "OWNED_BY"
	RelEmployedBy          RelType = "EMPLOYED_BY"
	RelHasParent           RelType = "HAS_PARENT"
	RelSupports            RelType = "SUPPORTS"
	RelUses                RelType = "USES"
	RelDataSource          RelType = "DATA_SOURCE"
	RelHostedOn            RelType = "HOSTED_ON"
	RelInterfaceSource     RelType = "INTERFACE_SOURCE"
	RelInterfaceTarget     RelType = "INTERFACE_TARGET"
	RelTransfers           RelType = "TRANSFERS"
	RelContains            RelType = "CONTAINS"
	RelAppliesPrinciple    RelType = "APPLIES_PRINCIPLE"
	RelImplementsPrinciple RelType = "IMPLEMENTS_PRINCIPLE"
	RelPartOf              RelType = "PART_OF"
	RelSuccessorOf         RelType = "SUCCESSOR_OF"
	RelReplicatesTo        RelType = "REPLICATES_TO"
	RelHosts               RelType = "HOSTS"
	RelConnects            RelType = "CONNECTS"
	RelBelongsTo           RelType = "BELONGS_TO"
)

// AllRelTypes lists every relationship type the builder can create.
var AllRelTypes = []RelType{
	RelOwnedBy,
	RelEmployedBy,
	RelHasParent,
	RelSupports,
	RelUses,
	RelDataSource,
	RelHostedOn,
	RelInterfaceSource,
	RelInterfaceTarget,
	RelTransfers,
	RelContains,
	RelAppliesPrinciple,
	RelImplementsPrinciple,
	RelPartOf,
	RelSuccessorOf,
	RelReplicatesTo,
	RelHosts,
	RelConnects,
	RelBelongsTo,
}
