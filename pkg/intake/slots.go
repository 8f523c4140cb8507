package intake

import "ai-act-intake-be/pkg/intake/prompt"

type DeploymentRole string

const (
	RoleProvider DeploymentRole = "Anbieter"      // developed in-house or commissioned
	RoleDeployer DeploymentRole = "Bereitsteller" // third-party system in use
	RoleImporter DeploymentRole = "Importeur"     // redistributed to others
)

type AffectedPopulation string

const (
	PopulationInternal AffectedPopulation = "interne Nutzung"
	PopulationExternal AffectedPopulation = "externe Nutzung"
	PopulationBoth     AffectedPopulation = "interne- und externe Nutzung"
)

type DataJurisdiction string

const (
	JurisdictionEU    DataJurisdiction = "Verarbeitung in der EU"
	JurisdictionNonEU DataJurisdiction = "Verarbeitung außerhalb der EU"
)

type AIUsageSource string

const (
	SourceDirect       AIUsageSource = "direct"
	SourceBrainstormed AIUsageSource = "brainstormed"
)

// AIUsage is the description of how AI supports the process, tagged with
// where it came from. Consumers read Text regardless of Source.
type AIUsage struct {
	Source AIUsageSource `json:"source"`
	Text   string        `json:"text"`
}

const (
	SlotProcess            = "process"
	SlotAIUsage            = "ai_usage"
	SlotDeploymentRole     = "deployment_role"
	SlotTimeHorizon        = "time_horizon"
	SlotAffectedPopulation = "affected_population"
	SlotDataJurisdiction   = "data_jurisdiction"
	SlotRemarks            = "remarks"
)

var slotOrder = []string{
	SlotProcess,
	SlotAIUsage,
	SlotDeploymentRole,
	SlotTimeHorizon,
	SlotAffectedPopulation,
	SlotDataJurisdiction,
	SlotRemarks,
}

// Slots holds one answer per questionnaire topic.
type Slots struct {
	Process            string
	AIUsage            AIUsage
	DeploymentRole     DeploymentRole
	TimeHorizon        string
	AffectedPopulation AffectedPopulation
	DataJurisdiction   DataJurisdiction
	Remarks            string
}

func (s Slots) values() map[string]string {
	return map[string]string{
		SlotProcess:            s.Process,
		SlotAIUsage:            s.AIUsage.Text,
		SlotDeploymentRole:     string(s.DeploymentRole),
		SlotTimeHorizon:        s.TimeHorizon,
		SlotAffectedPopulation: string(s.AffectedPopulation),
		SlotDataJurisdiction:   string(s.DataJurisdiction),
		SlotRemarks:            s.Remarks,
	}
}

// Filled reports per slot whether an answer has been recorded.
func (s Slots) Filled() map[string]bool {
	out := make(map[string]bool, len(slotOrder))
	for name, v := range s.values() {
		out[name] = v != ""
	}
	return out
}

// Missing lists unset slots in questionnaire order.
func (s Slots) Missing() []string {
	values := s.values()
	var missing []string
	for _, name := range slotOrder {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func (s Slots) summaryInput() prompt.SummaryInput {
	return prompt.SummaryInput{
		Process:            s.Process,
		AIUsage:            s.AIUsage.Text,
		DeploymentRole:     string(s.DeploymentRole),
		TimeHorizon:        s.TimeHorizon,
		AffectedPopulation: string(s.AffectedPopulation),
		DataJurisdiction:   string(s.DataJurisdiction),
		Remarks:            s.Remarks,
	}
}
