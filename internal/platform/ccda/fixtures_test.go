package ccda

import "strings"

// wrapBody places the given section markup inside a minimal namespaced
// ClinicalDocument.
func wrapBody(sections ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ClinicalDocument xmlns="urn:hl7-org:v3" xmlns:sdtc="urn:hl7-org:sdtc">
  <title>Continuity of Care Document</title>
  <component>
    <structuredBody>`)
	for _, s := range sections {
		b.WriteString("\n      <component>")
		b.WriteString(s)
		b.WriteString("</component>")
	}
	b.WriteString(`
    </structuredBody>
  </component>
</ClinicalDocument>`)
	return b.String()
}

const medicationsSection = `<section>
  <code code="10160-0" codeSystem="2.16.840.1.113883.6.1"/>
  <title>Medications</title>
  <entry>
    <substanceAdministration classCode="SBADM" moodCode="EVN">
      <effectiveTime>
        <low value="20210101"/>
      </effectiveTime>
      <consumable>
        <manufacturedProduct>
          <manufacturedMaterial>
            <code code="1191" displayName="Aspirin" codeSystem="2.16.840.1.113883.6.88" codeSystemName="RxNorm"/>
          </manufacturedMaterial>
        </manufacturedProduct>
      </consumable>
    </substanceAdministration>
  </entry>
</section>`

const fullMedicationsSection = `<section>
  <code code="10160-0" codeSystem="2.16.840.1.113883.6.1"/>
  <title>Current Medications List</title>
  <entry>
    <substanceAdministration>
      <effectiveTime>
        <low value="20200315083000"/>
        <high value="20201231"/>
      </effectiveTime>
      <consumable>
        <manufacturedProduct>
          <manufacturedMaterial>
            <code code="314076" codeSystem="2.16.840.1.113883.6.88">
              <originalText>Lisinopril 10 MG Oral Tablet</originalText>
            </code>
          </manufacturedMaterial>
        </manufacturedProduct>
      </consumable>
      <entryRelationship typeCode="COMP">
        <substanceAdministration>
          <text>Take one tablet daily</text>
        </substanceAdministration>
      </entryRelationship>
    </substanceAdministration>
  </entry>
  <entry>
    <substanceAdministration>
      <consumable>
        <manufacturedProduct>
          <manufacturedMaterial>
            <name>Herbal tea</name>
          </manufacturedMaterial>
        </manufacturedProduct>
      </consumable>
    </substanceAdministration>
  </entry>
  <entry>
    <act><code code="x"/></act>
  </entry>
</section>`

const resultsSection = `<section>
  <code code="30954-2" codeSystem="2.16.840.1.113883.6.1"/>
  <title>Results</title>
  <entry>
    <organizer>
      <component>
        <observation>
          <code code="718-7" displayName="Hemoglobin"/>
          <effectiveTime><low value="20220405101500"/></effectiveTime>
          <value value="13.2" unit="g/dL"/>
        </observation>
      </component>
      <component>
        <observation>
          <code code="4548-4" displayName="Hemoglobin A1c"/>
        </observation>
      </component>
    </organizer>
  </entry>
</section>`

const problemsSection = `<section>
  <code code="11450-4" codeSystem="2.16.840.1.113883.6.1"/>
  <title>Problem List</title>
  <entry>
    <act>
      <entryRelationship>
        <observation>
          <code code="55607006" displayName="Problem"/>
          <effectiveTime>
            <low value="20190610"/>
            <high value="20200101"/>
          </effectiveTime>
          <value code="38341003" displayName="Essential hypertension" codeSystem="2.16.840.1.113883.6.96" codeSystemName="SNOMED CT"/>
        </observation>
      </entryRelationship>
    </act>
  </entry>
</section>`

const proceduresSection = `<section>
  <code code="47519-4" codeSystem="2.16.840.1.113883.6.1"/>
  <title>History of Procedures</title>
  <entry>
    <procedure>
      <code code="80146002" displayName="Appendectomy" codeSystemName="SNOMED CT"/>
      <effectiveTime><low value="20150720"/></effectiveTime>
    </procedure>
  </entry>
</section>`

const surgeriesSection = `<section>
  <title>Past Surgeries</title>
  <entry>
    <procedure>
      <code code="73761001" displayName="Colonoscopy" codeSystemName="SNOMED CT"/>
    </procedure>
  </entry>
</section>`

const encountersSection = `<section>
  <code code="46240-8" codeSystem="2.16.840.1.113883.6.1"/>
  <title>Encounters</title>
  <entry>
    <encounter>
      <code code="99213" displayName="Office outpatient visit" codeSystemName="CPT-4"/>
      <effectiveTime>
        <low value="20230102090000"/>
        <high value="20230102094500"/>
      </effectiveTime>
    </encounter>
  </entry>
</section>`

const vitalsSection = `<section>
  <code code="8716-3" codeSystem="2.16.840.1.113883.6.1"/>
  <title>Vital Signs</title>
  <entry>
    <organizer>
      <component>
        <observation>
          <code code="8480-6" displayName="Systolic blood pressure"/>
          <effectiveTime><low value="20230102"/></effectiveTime>
          <value value="120" unit="mm[Hg]"/>
        </observation>
      </component>
      <component>
        <observation>
          <code code="8462-4" displayName="Diastolic blood pressure"/>
          <effectiveTime><low value="20230102"/></effectiveTime>
          <value value="80" unit="mm[Hg]"/>
        </observation>
      </component>
    </organizer>
  </entry>
</section>`

const immunizationsSection = `<section>
  <code code="11369-6" codeSystem="2.16.840.1.113883.6.1"/>
  <title>Immunizations</title>
  <entry>
    <substanceAdministration>
      <effectiveTime><low value="20211015"/></effectiveTime>
      <consumable>
        <manufacturedProduct>
          <manufacturedMaterial>
            <code code="141" displayName="Influenza, seasonal, injectable" codeSystemName="CVX"/>
          </manufacturedMaterial>
        </manufacturedProduct>
      </consumable>
    </substanceAdministration>
  </entry>
</section>`

const functionalStatusSection = `<section>
  <code code="47420-5" codeSystem="2.16.840.1.113883.6.1"/>
  <title>Functional Status</title>
  <entry>
    <observation>
      <code code="75246-9" displayName="Ambulation"/>
      <effectiveTime><low value="20220901"/></effectiveTime>
      <value value="2" unit="{score}"/>
    </observation>
  </entry>
</section>`

const narrativeOnlySection = `<section>
  <code code="29762-2" codeSystem="2.16.840.1.113883.6.1"/>
  <title>Social History</title>
  <text>Never smoker.</text>
</section>`

// fullDocument carries one populated section per domain plus a section that
// no extractor claims.
func fullDocument() string {
	return wrapBody(
		fullMedicationsSection,
		resultsSection,
		problemsSection,
		proceduresSection,
		surgeriesSection,
		encountersSection,
		vitalsSection,
		immunizationsSection,
		functionalStatusSection,
		narrativeOnlySection,
	)
}
